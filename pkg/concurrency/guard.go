// Package concurrency holds small synchronization helpers.
package concurrency

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a guarded task is already running.
var ErrBusy = errors.New("already running")

// Guard lets at most one task run at a time. A second caller is turned
// away with ErrBusy instead of waiting.
type Guard struct {
	mu     sync.Mutex
	isBusy bool
}

func NewGuard() *Guard {
	return &Guard{}
}

// Execute runs task unless another task is running.
func (g *Guard) Execute(task func() error) error {
	g.mu.Lock()
	if g.isBusy {
		g.mu.Unlock()
		return ErrBusy
	}
	g.isBusy = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.isBusy = false
		g.mu.Unlock()
	}()
	return task()
}

// Busy reports whether a task is running.
func (g *Guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isBusy
}
