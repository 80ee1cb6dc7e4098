package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Worker is one unit of execution bound to a slot id. Two variants exist:
// ProcessWorker supervises an external OS process, GoroutineWorker runs the
// work loop in-process. The orchestrator depends only on this contract.
type Worker interface {
	// Start launches the worker's execution context. It returns promptly;
	// the work happens on a dedicated goroutine.
	Start(ctx context.Context)

	// Join blocks until the worker permanently exits.
	Join() error
}

// Flag is a shared cooperative-interrupt flag. Workers stop retrying and
// the orchestrator stops its run once it is set.
type Flag struct {
	v atomic.Bool
}

func (f *Flag) Set()        { f.v.Store(true) }
func (f *Flag) IsSet() bool { return f.v.Load() }

// Counter tracks how many workers are currently running. Incremented when
// a worker's management loop starts, decremented when it permanently
// exits. The critical sections stay minimal: increment, decrement, read.
type Counter struct {
	mu sync.Mutex
	n  int
}

func (c *Counter) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *Counter) Dec() {
	c.mu.Lock()
	c.n--
	c.mu.Unlock()
}

func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
