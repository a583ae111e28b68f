package transfer

import (
	"context"
	"sync"
)

// Result is the outcome of a finished download job.
type Result struct {
	State JobState
	// Path is the destination of a completed job.
	Path string
	// Err is set for failed jobs only.
	Err error
}

// Handle is the caller's side of an enqueued job. The worker resolves it
// exactly once.
type Handle struct {
	id     string
	done   chan struct{}
	once   sync.Once
	result Result
	cancel context.CancelCauseFunc
}

func newHandle(id string, cancel context.CancelCauseFunc) *Handle {
	return &Handle{
		id:     id,
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// ID returns the job id, usable with JobRegistry.
func (h *Handle) ID() string {
	return h.id
}

// Done is closed once the job reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome without blocking. ok is false while the job
// is still queued or running.
func (h *Handle) Result() (Result, bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the job finishes or ctx is done. A completed job yields
// its path, a failed job its error and a cancelled job neither. Returning
// because ctx is done does not cancel the job.
func (h *Handle) Wait(ctx context.Context) (string, error) {
	select {
	case <-h.done:
		return h.outcome()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cancel stops this job only. A queued job is resolved as cancelled right
// away; a running one stops at the next chunk boundary.
func (h *Handle) Cancel() {
	h.cancel(ErrTransmissionCancelled)
}

func (h *Handle) outcome() (string, error) {
	switch h.result.State {
	case JobStateCompleted:
		return h.result.Path, nil
	case JobStateFailed:
		return "", h.result.Err
	default:
		return "", nil
	}
}

func (h *Handle) resolve(r Result) {
	h.once.Do(func() {
		h.result = r
		close(h.done)
	})
}
