package transfer

import (
	"context"
	"errors"
	"sync"
)

var errQueueClosed = errors.New("queue closed")

// jobQueue is an unbounded FIFO with any number of producers and a single
// consumer.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []*Job
	notify chan struct{}
	closed bool
}

func newJobQueue() *jobQueue {
	return &jobQueue{notify: make(chan struct{}, 1)}
}

func (q *jobQueue) push(j *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errQueueClosed
	}
	q.jobs = append(q.jobs, j)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// pop blocks until a job is available, the queue is closed or ctx is done.
func (q *jobQueue) pop(ctx context.Context) (*Job, error) {
	for {
		q.mu.Lock()
		if len(q.jobs) > 0 {
			j := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return j, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, errQueueClosed
		}

		select {
		case <-q.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// snapshot returns the queued jobs in order without removing them.
func (q *jobQueue) snapshot() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	return append([]*Job(nil), q.jobs...)
}

// take removes and returns every queued job. The queue stays open.
func (q *jobQueue) take() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	rest := q.jobs
	q.jobs = nil
	return rest
}

// close stops accepting jobs and returns the ones still queued.
func (q *jobQueue) close() []*Job {
	q.mu.Lock()
	q.closed = true
	rest := q.jobs
	q.jobs = nil
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return rest
}

func (q *jobQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs)
}
