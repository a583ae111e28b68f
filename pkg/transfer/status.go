package transfer

import (
	"errors"
	"time"

	"github.com/rescp17/mediaTransfer/pkg/fileid"
)

// JobState represents the current state of a download job
type JobState int

const (
	// JobStateQueued indicates the job waits in the queue
	JobStateQueued JobState = iota
	// JobStateInProgress indicates the worker is fetching the job
	JobStateInProgress
	// JobStateCompleted indicates the file was moved into its destination
	JobStateCompleted
	// JobStateFailed indicates the job stopped on an error
	JobStateFailed
	// JobStateCancelled indicates the job was stopped before it finished
	JobStateCancelled
)

// String returns a human-readable string representation of the job state
func (s JobState) String() string {
	switch s {
	case JobStateQueued:
		return "queued"
	case JobStateInProgress:
		return "in_progress"
	case JobStateCompleted:
		return "completed"
	case JobStateFailed:
		return "failed"
	case JobStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the state is final (completed, failed, or cancelled)
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed || s == JobStateCancelled
}

// CanTransitionTo checks if a state transition is valid
func (s JobState) CanTransitionTo(next JobState) bool {
	if s.IsTerminal() {
		return false
	}

	switch s {
	case JobStateQueued:
		return next == JobStateInProgress || next == JobStateCancelled
	case JobStateInProgress:
		return next == JobStateCompleted || next == JobStateFailed || next == JobStateCancelled
	default:
		return false
	}
}

// JobStatus is a snapshot of one download job.
type JobStatus struct {
	ID     string           `json:"id"`
	FileID string           `json:"file_id"`
	Kind   fileid.MediaType `json:"kind"`
	State  JobState         `json:"state"`

	// Progress information
	BytesDone  int64 `json:"bytes_done"`
	TotalBytes int64 `json:"total_bytes"`

	// Path is set once the job completes.
	Path string `json:"path,omitempty"`
	Err  error  `json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetProgressPercentage calculates the completion percentage (0-100)
func (s *JobStatus) GetProgressPercentage() float64 {
	if s.TotalBytes == 0 {
		return 0.0
	}
	return float64(s.BytesDone) / float64(s.TotalBytes) * 100.0
}

// RetryPolicy bounds how often a missing upload part is resent before the
// enclosing request gives up.
type RetryPolicy struct {
	MaxRetries    int           `json:"max_retries" validate:"gte=0"`
	InitialDelay  time.Duration `json:"initial_delay" validate:"gte=0"`
	BackoffFactor float64       `json:"backoff_factor"`
	MaxDelay      time.Duration `json:"max_delay" validate:"gtefield=InitialDelay"`
}

// DefaultRetryPolicy returns a sensible default retry policy
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  0,
		BackoffFactor: 2.0,
		MaxDelay:      5 * time.Second,
	}
}

// GetRetryDelay calculates the delay before the next retry attempt
func (rp *RetryPolicy) GetRetryDelay(retryCount int) time.Duration {
	if retryCount <= 0 || rp.InitialDelay == 0 {
		return rp.InitialDelay
	}

	delay := rp.InitialDelay
	for i := 0; i < retryCount; i++ {
		delay = time.Duration(float64(delay) * rp.BackoffFactor)
		if delay > rp.MaxDelay {
			return rp.MaxDelay
		}
	}
	return delay
}

var (
	// ErrJobNotFound is returned when a requested job doesn't exist
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidStateTransition is returned when an invalid state transition is attempted
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrJobAlreadyExists is returned when a job id is registered twice
	ErrJobAlreadyExists = errors.New("job already exists")

	// ErrInvalidConfiguration is returned when configuration validation fails
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrTransmissionCancelled stops a transfer at the next chunk boundary.
	// Callers never see it: a cancelled transfer has no result.
	ErrTransmissionCancelled = errors.New("transmission cancelled")

	// ErrDownloaderClosed is returned by Enqueue after Close.
	ErrDownloaderClosed = errors.New("downloader closed")

	// ErrEmptyFile is returned for uploads of zero bytes.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge is returned for uploads above the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrPartRejected is returned when the service does not acknowledge a part.
	ErrPartRejected = errors.New("part not acknowledged")

	// ErrRetriesExhausted wraps the last missing-part error once the retry
	// policy gives up.
	ErrRetriesExhausted = errors.New("upload retries exhausted")

	// ErrMediaTypeMismatch is returned when a file id has an unexpected kind.
	ErrMediaTypeMismatch = errors.New("media type mismatch")

	// ErrInsufficientSpace is returned when the destination volume cannot
	// hold the declared size.
	ErrInsufficientSpace = errors.New("insufficient disk space")
)
