package transfer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
	"github.com/rescp17/mediaTransfer/pkg/rpc"
)

// ErrorCategory represents the category of an error for handling purposes
type ErrorCategory int

const (
	// ErrorCategoryRecoverable indicates errors that can be retried
	ErrorCategoryRecoverable ErrorCategory = iota
	// ErrorCategoryNonRecoverable indicates errors that should not be retried
	ErrorCategoryNonRecoverable
	// ErrorCategoryCancelled indicates the transfer was stopped on purpose
	ErrorCategoryCancelled
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryRecoverable:
		return "recoverable"
	case ErrorCategoryNonRecoverable:
		return "non_recoverable"
	case ErrorCategoryCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ErrorAction represents the action to take when an error occurs
type ErrorAction int

const (
	// ErrorActionRetry indicates the operation should be retried
	ErrorActionRetry ErrorAction = iota
	// ErrorActionFail indicates the transfer should be marked as failed
	ErrorActionFail
	// ErrorActionCancel indicates the transfer ends without a result
	ErrorActionCancel
)

// String returns a string representation of ErrorAction
func (ea ErrorAction) String() string {
	switch ea {
	case ErrorActionRetry:
		return "retry"
	case ErrorActionFail:
		return "fail"
	case ErrorActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// ErrorHandler decides how transfer errors are handled
type ErrorHandler interface {
	// HandleError determines what action to take for a given error
	HandleError(target string, err error, retryCount int) ErrorAction

	// CategorizeError determines the category of an error
	CategorizeError(err error) ErrorCategory

	// GetRetryDelay calculates the delay before the next retry attempt
	GetRetryDelay(retryCount int) time.Duration

	// LogError logs an error with appropriate context
	LogError(target string, err error, action ErrorAction, retryCount int)
}

// DefaultErrorHandler provides a default implementation of ErrorHandler
type DefaultErrorHandler struct {
	retryPolicy *RetryPolicy
	log         *slog.Logger
}

// NewDefaultErrorHandler creates a new DefaultErrorHandler with the given retry policy
func NewDefaultErrorHandler(retryPolicy *RetryPolicy, log *slog.Logger) *DefaultErrorHandler {
	if retryPolicy == nil {
		retryPolicy = DefaultRetryPolicy()
	}
	if log == nil {
		log = slog.Default()
	}
	return &DefaultErrorHandler{
		retryPolicy: retryPolicy,
		log:         log,
	}
}

// HandleError determines what action to take for a given error
func (h *DefaultErrorHandler) HandleError(target string, err error, retryCount int) ErrorAction {
	if err == nil {
		return ErrorActionFail
	}

	switch h.CategorizeError(err) {
	case ErrorCategoryCancelled:
		return ErrorActionCancel
	case ErrorCategoryRecoverable:
		if retryCount < h.retryPolicy.MaxRetries {
			return ErrorActionRetry
		}
		return ErrorActionFail
	default:
		return ErrorActionFail
	}
}

// CategorizeError determines the category of an error.
func (h *DefaultErrorHandler) CategorizeError(err error) ErrorCategory {
	var (
		missing *rpc.MissingPartError
		localIO *LocalIOError
	)

	switch {
	case err == nil:
		return ErrorCategoryNonRecoverable
	case errors.Is(err, ErrTransmissionCancelled),
		errors.Is(err, context.Canceled):
		return ErrorCategoryCancelled
	case errors.As(err, &missing):
		return ErrorCategoryRecoverable
	case errors.As(err, &localIO),
		errors.Is(err, fileid.ErrInvalidIdentifier),
		errors.Is(err, fileid.ErrUnsupportedMediaType),
		errors.Is(err, rpc.ErrFileIDInvalid),
		errors.Is(err, ErrRetriesExhausted):
		return ErrorCategoryNonRecoverable
	}

	// Transient transport failures
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection reset", "connection refused", "timeout", "temporary failure"} {
		if strings.Contains(errMsg, pattern) {
			return ErrorCategoryRecoverable
		}
	}
	return ErrorCategoryNonRecoverable
}

// GetRetryDelay calculates the delay before the next retry attempt
func (h *DefaultErrorHandler) GetRetryDelay(retryCount int) time.Duration {
	return h.retryPolicy.GetRetryDelay(retryCount)
}

// LogError logs an error with appropriate context
func (h *DefaultErrorHandler) LogError(target string, err error, action ErrorAction, retryCount int) {
	logFields := []any{
		"target", target,
		"error", err,
		"action", action.String(),
		"retry_count", retryCount,
		"category", h.CategorizeError(err).String(),
	}

	switch action {
	case ErrorActionRetry:
		h.log.Warn("Transfer error, will retry", logFields...)
	case ErrorActionFail:
		h.log.Error("Transfer failed", logFields...)
	case ErrorActionCancel:
		h.log.Info("Transfer cancelled", logFields...)
	default:
		h.log.Error("Transfer error with unknown action", logFields...)
	}
}
