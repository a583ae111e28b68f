package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/rescp17/mediaTransfer/pkg/rpc"
	"github.com/rescp17/mediaTransfer/pkg/system"
)

// maxRequestSize bounds a request body: one upload part plus its base64
// and envelope overhead.
const maxRequestSize = 2 << 20

// API is the HTTP front of a media service.
type API struct {
	backend    rpc.Sender
	serializer *rpc.JSONSerializer
	mux        *http.ServeMux
	monitor    *system.SystemMonitor
	log        *slog.Logger
}

// NewAPI creates and initializes a new API serving backend.
func NewAPI(backend rpc.Sender, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	api := &API{
		backend:    backend,
		serializer: rpc.NewJSONSerializer(),
		mux:        http.NewServeMux(),
		monitor:    system.NewSystemMonitor(log),
		log:        log.With("component", "api"),
	}
	api.registerRoutes()
	return api
}

// ServeHTTP allows the API struct to satisfy the http.Handler interface.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) registerRoutes() {
	a.mux.HandleFunc("POST "+rpcPath, a.RPCHandler)
	a.mux.HandleFunc("GET /healthz", a.HealthHandler)
}

// RPCHandler decodes one call, runs it against the backend and writes the
// result or the service error.
func (a *API) RPCHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	req, err := a.serializer.UnmarshalRequest(data)
	if err != nil {
		a.log.Warn("Invalid request", "error", err, "service", r.Header.Get(serviceIDHeader))
		a.writeResponse(w, nil, &rpc.ServiceError{Code: rpc.CodeBadRequest, Message: "REQUEST_INVALID"})
		return
	}

	resp, err := a.backend.Send(r.Context(), req)
	if err != nil {
		a.log.Debug("Call failed", "method", req.Method(), "error", err, "service", r.Header.Get(serviceIDHeader))
	}
	a.writeResponse(w, resp, err)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string               `json:"status"`
	Usage  system.ResourceUsage `json:"usage"`
}

func (a *API) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if a.monitor.IsResourceConstrained() {
		status = "constrained"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status: status,
		Usage:  a.monitor.GetResourceUsage(),
	})
}

func (a *API) writeResponse(w http.ResponseWriter, resp rpc.Response, callErr error) {
	data, err := a.serializer.MarshalResponse(resp, callErr)
	if err != nil {
		a.log.Error("Failed to marshal response", "error", err)
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if callErr != nil {
		status, _ = rpc.ServiceErrorOf(callErr)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		a.log.Warn("Failed to write response", "error", err)
	}
}
