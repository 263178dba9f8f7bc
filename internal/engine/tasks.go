// Package engine holds the in-memory core of the Mnemon journal: the
// application state (works, mnemons, shuffled display order), the carousel
// controller driving the slideshow, the gesture state machine, and the undo
// queue for pending deletions.
package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// Dispatcher runs fire-and-forget persistence tasks in the background.
// Mutations return to the caller immediately; each spawned task gets its own
// timeout context and failures are logged, never surfaced. Wait lets tests
// and shutdown observe completion of everything dispatched so far.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewDispatcher creates a dispatcher whose tasks are bounded by timeout.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout}
}

// Go runs fn in the background. The name identifies the task in logs.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("ERROR: background task %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until all tasks dispatched so far have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
