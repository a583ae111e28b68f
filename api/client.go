package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

const (
	serviceIDHeader = "X-Service-ID"
	rpcPath         = "/rpc"

	// maxResponseSize bounds a response body: one GetFile chunk plus its
	// base64 and envelope overhead.
	maxResponseSize = 4 << 20
)

// serviceIDInjector is a custom http.RoundTripper that injects a service ID into each request.
type serviceIDInjector struct {
	serviceID string
	next      http.RoundTripper
}

// RoundTrip intercepts the request, adds the service ID header, and passes it to the next transport.
func (t *serviceIDInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set(serviceIDHeader, t.serviceID)
	return t.next.RoundTrip(req)
}

// Client sends rpc calls to a media service over HTTP. It implements
// rpc.Sender and keeps no per-call state.
type Client struct {
	HttpClient *http.Client
	serverURL  string
	serializer *rpc.JSONSerializer
}

// NewClient creates a new API client, configured to automatically inject the provided serviceID.
func NewClient(serviceID, serverURL string) *Client {
	transport := &serviceIDInjector{
		serviceID: serviceID,
		next:      http.DefaultTransport,
	}

	return &Client{
		HttpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		serverURL:  strings.TrimRight(serverURL, "/"),
		serializer: rpc.NewJSONSerializer(),
	}
}

func (c *Client) SetServerURL(serverURL string) {
	c.serverURL = strings.TrimRight(serverURL, "/")
}

func (c *Client) ServerURL() string {
	return c.serverURL
}

// Send performs one call. Errors reported by the service come back as the
// typed errors of package rpc.
func (c *Client) Send(ctx context.Context, req rpc.Request) (rpc.Response, error) {
	if c.serverURL == "" {
		return nil, errors.New("server URL is not set")
	}

	body, err := c.serializer.MarshalRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", req.Method(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+rpcPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", req.Method(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HttpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", req.Method(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", req.Method(), err)
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return nil, fmt.Errorf("%s responded with non-OK status: %s", req.Method(), resp.Status)
	}
	return c.serializer.UnmarshalResponse(req.Method(), data)
}
