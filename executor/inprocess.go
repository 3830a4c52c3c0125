package executor

import (
	"github.com/anvil-build/anvil/future"
	"github.com/anvil-build/anvil/types"
)

// InProcess executes tasks synchronously on Submit, resolving the
// returned Future before Submit returns — useful for tests and
// single-job builds, mirroring original_source/build/task.py's
// InProcessTaskExecutor.
type InProcess struct {
	common
}

func NewInProcess() *InProcess {
	return &InProcess{}
}

func (e *InProcess) Submit(task types.Task) *future.Future {
	f := future.New()
	if err := e.checkOpen(); err != nil {
		f.Fail(err)
		return f
	}
	e.running.Add(1)
	defer e.running.Add(-1)

	result, err := task.Run()
	if err != nil {
		f.Fail(types.WrapError(types.ErrTask, "task failed", err))
		return f
	}
	f.Succeed(result)
	return f
}

func (e *InProcess) Close(graceful bool) error {
	return e.markClosed()
}
