// Package executor implements the task executor abstraction (spec §4.5):
// a pool that accepts opaque, self-contained Task work units and returns
// a Future per submission, with an in-process (synchronous) variant and a
// goroutine-pool variant.
package executor

import (
	"sync"
	"sync/atomic"

	"github.com/anvil-build/anvil/future"
	"github.com/anvil-build/anvil/types"
)

// Executor is the pool contract both variants implement.
type Executor interface {
	// Submit schedules task and returns a Future that resolves with the
	// task's result on success or fails with the captured error.
	// Submitting after Close is an ExecutorClosed error delivered via the
	// future's failure, not a synchronous error return, since submission
	// must never block the single-threaded driver tier that calls it.
	Submit(task types.Task) *future.Future
	// Running reports whether any submitted task has not yet resolved.
	Running() bool
	// Close rejects further submissions. If graceful, it waits for
	// in-flight tasks to finish; otherwise it cancels them best-effort
	// and resolves their Futures as ExecutorClosed failures. A second
	// Close returns an ExecutorClosed error.
	Close(graceful bool) error
}

// common holds the closed/running-count bookkeeping shared by both
// variants, the way the original's TaskExecutor base class did.
type common struct {
	closed  atomic.Bool
	running atomic.Int64
	mu      sync.Mutex
}

func (c *common) Running() bool {
	return c.running.Load() > 0
}

func (c *common) markClosed() error {
	if !c.closed.CompareAndSwap(false, true) {
		return types.NewError(types.ErrExecutorClosed, "executor already closed")
	}
	return nil
}

func (c *common) checkOpen() error {
	if c.closed.Load() {
		return types.NewError(types.ErrExecutorClosed, "executor has been closed and cannot run new tasks")
	}
	return nil
}
