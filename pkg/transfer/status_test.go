package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobState_String(t *testing.T) {
	tests := []struct {
		state    JobState
		expected string
	}{
		{JobStateQueued, "queued"},
		{JobStateInProgress, "in_progress"},
		{JobStateCompleted, "completed"},
		{JobStateFailed, "failed"},
		{JobStateCancelled, "cancelled"},
		{JobState(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestJobState_CanTransitionTo(t *testing.T) {
	allowed := map[JobState][]JobState{
		JobStateQueued:     {JobStateInProgress, JobStateCancelled},
		JobStateInProgress: {JobStateCompleted, JobStateFailed, JobStateCancelled},
	}
	states := []JobState{JobStateQueued, JobStateInProgress, JobStateCompleted, JobStateFailed, JobStateCancelled}

	for _, from := range states {
		for _, to := range states {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
		assert.Equal(t, len(allowed[from]) == 0, from.IsTerminal(), "%s terminal", from)
	}
}

func TestJobStatus_GetProgressPercentage(t *testing.T) {
	s := JobStatus{BytesDone: 25, TotalBytes: 100}
	assert.Equal(t, 25.0, s.GetProgressPercentage())

	s = JobStatus{BytesDone: 25}
	assert.Equal(t, 0.0, s.GetProgressPercentage())
}

func TestRetryPolicy_GetRetryDelay(t *testing.T) {
	policy := &RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  100 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxDelay:      time.Second,
	}

	tests := []struct {
		retryCount int
		expected   time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, policy.GetRetryDelay(tt.retryCount), "retry %d", tt.retryCount)
	}

	assert.Zero(t, DefaultRetryPolicy().GetRetryDelay(3), "default policy resends at once")
}
