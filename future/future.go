// Package future implements the one-shot completion primitive (spec §4.1)
// that threads outcome information across both the single-threaded
// BuildContext driver and the goroutine-pool task executor. It is the
// Go rendering of original_source/build/async.py's Deferred: an
// at-most-once transition from pending to either resolved-success or
// resolved-failure, with subscribers fired synchronously in registration
// order — immediately, if they register after the transition already
// happened.
package future

import (
	"sync"

	"github.com/anvil-build/anvil/types"
)

// Future is a Deferred: pending until Succeed or Fail is called exactly
// once, after which OnSuccess/OnFailure subscribers fire with the stored
// outcome — synchronously, whether they were registered before or after
// resolution.
type Future struct {
	mu        sync.Mutex
	done      bool
	succeeded bool
	result    any
	err       error
	onSuccess []func(any)
	onFailure []func(error)
}

// New returns a pending Future.
func New() *Future {
	return &Future{}
}

var _ types.Future = (*Future)(nil)

func (f *Future) Resolved() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

func (f *Future) Succeeded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done && f.succeeded
}

func (f *Future) Result() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Succeed is the at-most-once terminal transition to resolved-success. A
// second call to Succeed or Fail is a programming error.
func (f *Future) Succeed(result any) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		panic(types.NewError(types.ErrProgramming, "future already resolved"))
	}
	f.done = true
	f.succeeded = true
	f.result = result
	callbacks := f.onSuccess
	f.onSuccess = nil
	f.onFailure = nil
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(result)
	}
}

// Fail is the at-most-once terminal transition to resolved-failure.
func (f *Future) Fail(err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		panic(types.NewError(types.ErrProgramming, "future already resolved"))
	}
	f.done = true
	f.succeeded = false
	f.err = err
	callbacks := f.onFailure
	f.onSuccess = nil
	f.onFailure = nil
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(err)
	}
}

// OnSuccess registers fn to run with the success result. If the Future is
// already resolved-success, fn runs immediately (synchronously, on the
// calling goroutine) before OnSuccess returns. Skipped entirely if the
// Future resolves (or has resolved) to failure.
func (f *Future) OnSuccess(fn func(result any)) {
	f.mu.Lock()
	if f.done {
		succeeded, result := f.succeeded, f.result
		f.mu.Unlock()
		if succeeded {
			fn(result)
		}
		return
	}
	f.onSuccess = append(f.onSuccess, fn)
	f.mu.Unlock()
}

// OnFailure registers fn to run with the failure error, symmetric to
// OnSuccess.
func (f *Future) OnFailure(fn func(err error)) {
	f.mu.Lock()
	if f.done {
		succeeded, err := f.succeeded, f.err
		f.mu.Unlock()
		if !succeeded {
			fn(err)
		}
		return
	}
	f.onFailure = append(f.onFailure, fn)
	f.mu.Unlock()
}
