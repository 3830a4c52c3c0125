package executor

import (
	"runtime"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/anvil-build/anvil/future"
	"github.com/anvil-build/anvil/types"
)

// envelope is a task tagged with the Future it completes and a uuid for
// tracing, the unit shipped across the pool's channels.
type envelope struct {
	id   uuid.UUID
	task types.Task
	fut  *future.Future
}

type result struct {
	env envelope
	val any
	err error
}

// Pool is the goroutine-based multi-process-executor analogue (spec
// §4.5's "Multi-process variant"): a fixed set of worker goroutines pull
// envelopes off a work channel and execute them; a single dispatcher
// goroutine drains their results and resolves each envelope's Future —
// the "supervisor task selecting over a completion channel" spec §9
// Design Notes recommends as the systems-language rendering of the
// Python original's multiprocessing.Pool callback thread. Workers never
// touch a Future directly. Every task that runs is resolved by this one
// dispatcher goroutine; the exceptions are a Submit after Close and a
// non-graceful Close, which fail the affected Futures on the calling
// goroutine.
type Pool struct {
	common

	workers int
	tasks   chan envelope
	results chan result

	workerWG     sync.WaitGroup
	dispatcherWG sync.WaitGroup

	mu      sync.Mutex
	pending map[uuid.UUID]envelope

	logger types.Logger
}

// NewPool starts a Pool with workers goroutines (0 or negative means host
// parallelism, via runtime.GOMAXPROCS).
func NewPool(workers int, logger types.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = types.NopLogger()
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan envelope, workers*4),
		results: make(chan result, workers*4),
		pending: make(map[uuid.UUID]envelope),
		logger:  logger,
	}
	p.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		go p.runWorker()
	}
	p.dispatcherWG.Add(1)
	go p.runDispatcher()
	return p
}

func (p *Pool) runWorker() {
	defer p.workerWG.Done()
	for env := range p.tasks {
		p.mu.Lock()
		_, stillPending := p.pending[env.id]
		if stillPending {
			delete(p.pending, env.id)
		}
		p.mu.Unlock()
		// Already cancelled by a non-graceful Close before this worker
		// got to it: its Future was resolved there, so skip running it.
		if !stillPending {
			continue
		}

		val, err := safeRun(env.task)
		p.results <- result{env: env, val: val, err: err}
	}
}

func safeRun(task types.Task) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = types.NewError(types.ErrTask, "task panicked")
		}
	}()
	return task.Run()
}

func (p *Pool) runDispatcher() {
	defer p.dispatcherWG.Done()
	for r := range p.results {
		p.mu.Lock()
		delete(p.pending, r.env.id)
		p.mu.Unlock()
		recordTask(r.err == nil)
		if r.err != nil {
			r.env.fut.Fail(types.WrapError(types.ErrTask, "task "+r.env.id.String()+" failed", r.err))
		} else {
			r.env.fut.Succeed(r.val)
		}
		p.running.Add(-1)
	}
}

func (p *Pool) Submit(task types.Task) *future.Future {
	f := future.New()
	if err := p.checkOpen(); err != nil {
		f.Fail(err)
		return f
	}

	id, _ := uuid.NewV4()
	env := envelope{id: id, task: task, fut: f}

	p.mu.Lock()
	p.pending[id] = env
	p.mu.Unlock()
	p.running.Add(1)

	p.tasks <- env
	return f
}

// Close stops accepting submissions. If graceful, it waits for every
// in-flight and already-queued task to finish before returning. If not,
// it fails every currently-pending Future with ExecutorClosed (tasks
// already executing inside a worker cannot be preempted — Go has no
// cooperative cancellation for an opaque Task.Run — so this is
// best-effort exactly as spec §4.5 allows), and returns immediately
// without waiting on whatever task a worker is already running: the
// caller has no way to know that task is "in flight" to begin with, so
// blocking on it here would make a non-graceful close indistinguishable
// from a graceful one. Workers and the dispatcher drain in the
// background and close(p.results)/goroutine exit happen once they do.
func (p *Pool) Close(graceful bool) error {
	if err := p.markClosed(); err != nil {
		return err
	}

	if !graceful {
		p.mu.Lock()
		stale := make([]envelope, 0, len(p.pending))
		for _, env := range p.pending {
			stale = append(stale, env)
		}
		p.pending = make(map[uuid.UUID]envelope)
		p.mu.Unlock()
		for _, env := range stale {
			if !env.fut.Resolved() {
				env.fut.Fail(types.NewError(types.ErrExecutorClosed, "executor closed non-gracefully, task cancelled"))
				p.running.Add(-1)
			}
		}

		close(p.tasks)
		go func() {
			p.workerWG.Wait()
			close(p.results)
			p.dispatcherWG.Wait()
		}()
		return nil
	}

	close(p.tasks)
	p.workerWG.Wait()
	close(p.results)
	p.dispatcherWG.Wait()
	return nil
}
