package future

import (
	"fmt"
	"strings"
	"sync"
)

// Gather returns a Future that succeeds with the collected results (in
// input order) once every Future in fs has succeeded.
//
// With failFast, the returned Future fails with the first input failure
// observed, without waiting for the rest. Without it, Gather waits for
// every input to resolve and, if any failed, fails with a summary error
// naming how many of how many failed.
func Gather(fs []*Future, failFast bool) *Future {
	out := New()
	if len(fs) == 0 {
		out.Succeed([]any{})
		return out
	}

	var mu sync.Mutex
	results := make([]any, len(fs))
	errs := make([]error, len(fs))
	remaining := len(fs)
	settled := false

	settle := func() {
		if settled {
			return
		}
		failed := 0
		for _, e := range errs {
			if e != nil {
				failed++
			}
		}
		if failed == 0 {
			settled = true
			out.Succeed(append([]any(nil), results...))
			return
		}
		settled = true
		out.Fail(summarize(errs, failed))
	}

	for idx, f := range fs {
		i := idx
		f.OnSuccess(func(result any) {
			mu.Lock()
			defer mu.Unlock()
			if settled {
				return
			}
			results[i] = result
			remaining--
			if remaining == 0 {
				settle()
			}
		})
		f.OnFailure(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if settled {
				return
			}
			errs[i] = err
			remaining--
			if failFast {
				settled = true
				out.Fail(err)
				return
			}
			if remaining == 0 {
				settle()
			}
		})
	}

	return out
}

// Join returns a Future that succeeds with the collected results (in
// input order) once every Future in fs has succeeded, and otherwise
// fails with a single input's own raw error — unlike Gather, it never
// wraps failures into a joined summary, so the error's Kind survives for
// errors.Is/errors.As.
//
// Futures already resolved-failed when Join is called are scanned in
// order and the first one found decides the failure (Open Question (ii):
// _chain preserves registration order among futures already
// resolved-failed at chain time). A Future that is still pending at call
// time and later fails settles the join immediately with its own error,
// without waiting for the remaining futures — ruleContext.Chain relies
// on this rather than Gather(fs, false), whose summary/multi-error
// semantics are right for the standalone gather() primitive (spec §4.1)
// but wrong for _chain (spec §4.7).
func Join(fs []*Future) *Future {
	out := New()
	if len(fs) == 0 {
		out.Succeed([]any{})
		return out
	}

	for _, f := range fs {
		if f.Resolved() && !f.Succeeded() {
			out.Fail(f.Err())
			return out
		}
	}

	var mu sync.Mutex
	results := make([]any, len(fs))
	remaining := len(fs)
	settled := false

	for idx, f := range fs {
		i := idx
		f.OnSuccess(func(result any) {
			mu.Lock()
			defer mu.Unlock()
			if settled {
				return
			}
			results[i] = result
			remaining--
			if remaining == 0 {
				settled = true
				out.Succeed(append([]any(nil), results...))
			}
		})
		f.OnFailure(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if settled {
				return
			}
			settled = true
			out.Fail(err)
		})
	}

	return out
}

func summarize(errs []error, failed int) error {
	var msgs []string
	for i, e := range errs {
		if e != nil {
			msgs = append(msgs, fmt.Sprintf("[%d] %v", i, e))
		}
	}
	return fmt.Errorf("%d of %d futures failed: %s", failed, len(errs), strings.Join(msgs, "; "))
}
