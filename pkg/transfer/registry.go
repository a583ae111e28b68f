package transfer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// StatusListener receives job state and progress changes
type StatusListener interface {
	ID() string
	// OnJobStatusChanged is called with copies of the status before and
	// after the change.
	OnJobStatusChanged(oldStatus, newStatus JobStatus)
}

// JobRegistry tracks the status of every download job by id.
// It is safe for concurrent use; all returned statuses are copies.
type JobRegistry struct {
	// jobs maps job ids to their current status
	jobs map[string]*JobStatus
	mu   sync.RWMutex

	listeners   []StatusListener
	subscribers map[int]chan JobStatus
	nextSub     int
	eventsMu    sync.RWMutex

	bufferSize int
	log        *slog.Logger
}

// NewJobRegistry creates an empty registry. bufferSize is the capacity of
// channels handed out by Subscribe.
func NewJobRegistry(bufferSize int, log *slog.Logger) *JobRegistry {
	if bufferSize <= 0 {
		bufferSize = DefaultTransferConfig().EventBufferSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &JobRegistry{
		jobs:        make(map[string]*JobStatus),
		subscribers: make(map[int]chan JobStatus),
		bufferSize:  bufferSize,
		log:         log,
	}
}

// Register adds a new job in the queued state
func (r *JobRegistry) Register(status JobStatus) error {
	if status.ID == "" {
		return fmt.Errorf("job id cannot be empty")
	}

	r.mu.Lock()
	if _, exists := r.jobs[status.ID]; exists {
		r.mu.Unlock()
		return ErrJobAlreadyExists
	}
	now := time.Now()
	status.State = JobStateQueued
	status.CreatedAt = now
	status.UpdatedAt = now
	stored := status
	r.jobs[status.ID] = &stored
	r.mu.Unlock()

	r.notify(JobStatus{}, status)
	return nil
}

// Transition moves a job from one state to another. It fails with
// ErrInvalidStateTransition when the job is no longer in state from, which
// makes it usable as a compare-and-swap between competing updaters.
func (r *JobRegistry) Transition(id string, from, to JobState, update func(*JobStatus)) error {
	r.mu.Lock()
	status, exists := r.jobs[id]
	if !exists {
		r.mu.Unlock()
		return ErrJobNotFound
	}
	if status.State != from || !from.CanTransitionTo(to) {
		current := status.State
		r.mu.Unlock()
		return fmt.Errorf("%w: job %s is %s, cannot go from %s to %s",
			ErrInvalidStateTransition, id, current, from, to)
	}

	old := *status
	now := time.Now()
	status.State = to
	status.UpdatedAt = now
	if to.IsTerminal() {
		status.CompletedAt = &now
	}
	if update != nil {
		update(status)
	}
	updated := *status
	r.mu.Unlock()

	r.notify(old, updated)
	return nil
}

// UpdateProgress records the bytes fetched so far for an in-progress job
func (r *JobRegistry) UpdateProgress(id string, bytesDone, totalBytes int64) error {
	r.mu.Lock()
	status, exists := r.jobs[id]
	if !exists {
		r.mu.Unlock()
		return ErrJobNotFound
	}
	if status.State != JobStateInProgress {
		r.mu.Unlock()
		return fmt.Errorf("%w: job %s is %s", ErrInvalidStateTransition, id, status.State)
	}
	old := *status
	status.BytesDone = bytesDone
	status.TotalBytes = totalBytes
	status.UpdatedAt = time.Now()
	updated := *status
	r.mu.Unlock()

	r.notify(old, updated)
	return nil
}

// Get retrieves the current status of a job
func (r *JobRegistry) Get(id string) (JobStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, exists := r.jobs[id]
	if !exists {
		return JobStatus{}, ErrJobNotFound
	}
	return *status, nil
}

// List returns a copy of every tracked job
func (r *JobRegistry) List() []JobStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]JobStatus, 0, len(r.jobs))
	for _, status := range r.jobs {
		jobs = append(jobs, *status)
	}
	return jobs
}

// Remove forgets a job that reached a terminal state
func (r *JobRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, exists := r.jobs[id]
	if !exists {
		return ErrJobNotFound
	}
	if !status.State.IsTerminal() {
		return fmt.Errorf("cannot remove job in state %s", status.State)
	}
	delete(r.jobs, id)
	return nil
}

// AddStatusListener adds a status change listener
func (r *JobRegistry) AddStatusListener(listener StatusListener) {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	r.listeners = append(r.listeners, listener)
}

// RemoveStatusListener removes the listener with the given id
func (r *JobRegistry) RemoveStatusListener(id string) {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	for i, l := range r.listeners {
		if l.ID() == id {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Subscribe returns a channel receiving every new status. Updates are
// dropped, never blocked on, when the channel is full. The returned
// function unsubscribes and closes the channel.
func (r *JobRegistry) Subscribe() (<-chan JobStatus, func()) {
	ch := make(chan JobStatus, r.bufferSize)

	r.eventsMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = ch
	r.eventsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.eventsMu.Lock()
			delete(r.subscribers, id)
			r.eventsMu.Unlock()
			close(ch)
		})
	}
}

func (r *JobRegistry) notify(oldStatus, newStatus JobStatus) {
	r.eventsMu.RLock()
	defer r.eventsMu.RUnlock()

	for _, ch := range r.subscribers {
		select {
		case ch <- newStatus:
		default:
			r.log.Debug("Dropping job status update", "job", newStatus.ID, "state", newStatus.State)
		}
	}

	// Notify each listener in its own goroutine to prevent blocking the worker
	for _, listener := range r.listeners {
		go func(l StatusListener) {
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error("Panic in job status listener", "listener", l.ID(), "panic", rec)
				}
			}()
			l.OnJobStatusChanged(oldStatus, newStatus)
		}(listener)
	}
}
