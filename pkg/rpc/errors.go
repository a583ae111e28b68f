package rpc

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ErrFileIDInvalid is returned by the service for an id it cannot resolve.
	ErrFileIDInvalid = errors.New("FILE_ID_INVALID")
	// ErrMediaEmpty is returned by SendMedia when no media is attached.
	ErrMediaEmpty = errors.New("MEDIA_EMPTY")
	// ErrFilePartInvalid is returned for an out of range or empty part.
	ErrFilePartInvalid = errors.New("FILE_PART_INVALID")
)

// Error codes carried alongside service errors.
const (
	CodeBadRequest = 400
	CodeNotFound   = 404
	CodeInternal   = 500
)

// MissingPartError means the service did not receive part Part of an
// upload referenced by a SendMedia call.
type MissingPartError struct {
	Part int32
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("FILE_PART_%d_MISSING", e.Part)
}

// ServiceError is any other error reported by the service.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %d: %s", e.Code, e.Message)
}

var missingPartPattern = regexp.MustCompile(`^FILE_PART_(\d+)_MISSING$`)

// ErrorFromService rebuilds the typed error for a code and message received
// over the wire.
func ErrorFromService(code int, message string) error {
	if m := missingPartPattern.FindStringSubmatch(message); m != nil {
		part, err := strconv.ParseInt(m[1], 10, 32)
		if err == nil {
			return &MissingPartError{Part: int32(part)}
		}
	}
	for _, known := range []error{ErrFileIDInvalid, ErrMediaEmpty, ErrFilePartInvalid} {
		if message == known.Error() {
			return known
		}
	}
	return &ServiceError{Code: code, Message: message}
}

// ServiceErrorOf returns the code and message that describe err on the
// wire. It is the inverse of ErrorFromService for the known errors.
func ServiceErrorOf(err error) (int, string) {
	var missing *MissingPartError
	var svc *ServiceError
	switch {
	case errors.As(err, &missing):
		return CodeBadRequest, missing.Error()
	case errors.Is(err, ErrFileIDInvalid):
		return CodeBadRequest, ErrFileIDInvalid.Error()
	case errors.Is(err, ErrMediaEmpty):
		return CodeBadRequest, ErrMediaEmpty.Error()
	case errors.Is(err, ErrFilePartInvalid):
		return CodeBadRequest, ErrFilePartInvalid.Error()
	case errors.As(err, &svc):
		return svc.Code, svc.Message
	default:
		return CodeInternal, err.Error()
	}
}
