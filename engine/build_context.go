// Package engine implements the build driver (spec §4.6/§4.7): the
// single-threaded cooperative BuildContext that pumps a project's rule
// graph through a task executor, and the concrete RuleContext a rule
// body executes against. It is the Go rendering of
// original_source/build/context.py, generalizing the teacher's
// ChainEngine/DefaultRuleContext pair (a message-chain driver) onto a
// dependency-respecting rule scheduler.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/anvil-build/anvil/executor"
	"github.com/anvil-build/anvil/future"
	"github.com/anvil-build/anvil/graph"
	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

// Notifier publishes build lifecycle events; notify.MQTTPublisher (spec
// §4.6 [DOMAIN]) is the concrete implementation used by the optional
// serve/deploy collaborators. Declared here, consumer-side, so engine
// never imports the notify package.
type Notifier interface {
	Publish(event, rulePath string, payload any)
}

// Option configures a BuildContext at construction, the same
// functional-options shape types.Option uses for Config.
type Option func(*BuildContext)

// WithNotifier attaches an event-bus publisher.
func WithNotifier(n Notifier) Option {
	return func(bc *BuildContext) { bc.notifier = n }
}

// BuildContext is a per-build driver over one project and task executor.
// It is single-use: construct a new one for each build (spec §4.6
// Lifecycle).
type BuildContext struct {
	env     *types.Environment
	project *project.Project
	config  types.Config

	executor     executor.Executor
	ownsExecutor bool
	notifier     Notifier

	g *graph.Graph

	mu        sync.Mutex
	states    map[string]*ruleContext
	remaining []*project.Rule
	inFlight  map[string]bool
	anyFailed bool

	overall *future.Future
}

// NewBuildContext constructs a driver over env/proj. If exec is nil, a
// goroutine-pool executor sized by cfg.Workers is created and owned by
// this context (closed automatically once the build finishes).
func NewBuildContext(env *types.Environment, proj *project.Project, exec executor.Executor, cfg types.Config, opts ...Option) *BuildContext {
	ownsExecutor := false
	if exec == nil {
		exec = executor.NewPool(cfg.Workers, cfg.Logger)
		ownsExecutor = true
	}
	bc := &BuildContext{
		env:          env,
		project:      proj,
		config:       cfg,
		executor:     exec,
		ownsExecutor: ownsExecutor,
		states:       make(map[string]*ruleContext),
		inFlight:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// Execute validates targets, computes their build sequence, and drives
// rules through the executor respecting dependency order (spec §4.6
// steps 1-6). It returns the overall build Future immediately; the
// caller observes completion via its subscribers or ExecuteSync/Wait.
func (bc *BuildContext) Execute(targets []string) *future.Future {
	bc.overall = future.New()
	bc.overall.OnSuccess(func(any) { bc.finishBuild(true) })
	bc.overall.OnFailure(func(error) { bc.finishBuild(false) })

	if err := bc.validateTargets(targets); err != nil {
		bc.overall.Fail(err)
		return bc.overall
	}

	g, err := graph.Build(bc.project)
	if err != nil {
		bc.overall.Fail(err)
		return bc.overall
	}
	bc.g = g

	seq, err := g.Sequence(targets)
	if err != nil {
		bc.overall.Fail(err)
		return bc.overall
	}

	bc.mu.Lock()
	bc.remaining = seq
	bc.mu.Unlock()

	// Priming per spec step 6: a heuristic to fill parallelism early;
	// extra pump calls beyond what's needed are idempotent. The leading
	// call also covers the degenerate empty-sequence case (no targets),
	// where the loop below would otherwise never run and the overall
	// Future would never resolve.
	bc.pump(false)
	for range seq {
		bc.pump(false)
	}
	return bc.overall
}

// ExecuteSync runs Execute(targets) and blocks until it resolves,
// returning a success flag. With Config.RaiseOnError, a failed build
// returns the build's error instead of false.
func (bc *BuildContext) ExecuteSync(targets []string) (bool, error) {
	f := bc.Execute(targets)
	bc.Wait(f)
	if f.Succeeded() {
		return true, nil
	}
	if bc.config.RaiseOnError {
		return false, f.Err()
	}
	return false, nil
}

// Wait blocks the calling goroutine until f resolves. Intended for
// ExecuteSync and tests (spec §5) — production drivers react to
// callbacks instead.
func (bc *BuildContext) Wait(f *future.Future) {
	if f.Resolved() {
		return
	}
	done := make(chan struct{})
	once := sync.Once{}
	signal := func() { once.Do(func() { close(done) }) }
	f.OnSuccess(func(any) { signal() })
	f.OnFailure(func(error) { signal() })
	<-done
}

func (bc *BuildContext) validateTargets(targets []string) error {
	for _, t := range targets {
		if !project.IsRulePath(t) {
			return types.NewError(types.ErrBadName, "target is not a well-formed rule path: "+t)
		}
		if _, err := bc.project.ResolveRule(t, ""); err != nil {
			return err
		}
	}
	return nil
}

// pump is the cooperative scheduler step (spec §4.6 step 4). lastFailed
// reports whether the rule that just triggered re-entry finished Failed;
// false when called from priming or the failure path doesn't apply yet.
//
// The lock is held only while mutating remaining/in_flight, never across
// a call into issue (which invokes a rule body's Begin): a rule body may
// resolve synchronously — the in-process executor always does — which
// re-enters pump on the very same goroutine, and a plain sync.Mutex is
// not reentrant. Holding the lock across issue would deadlock on that
// path. What this gives up, relative to spec §5's idealized single
// logical thread of control, is a brief window where remaining/in_flight
// reflect "rules about to be issued" rather than "rules fully begun";
// that window never leaks into an invariant the driver checks, since any
// recursive pump call always re-reads fresh state under the lock.
func (bc *BuildContext) pump(lastFailed bool) {
	bc.mu.Lock()
	if bc.overall.Resolved() {
		bc.mu.Unlock()
		return
	}

	if lastFailed {
		bc.anyFailed = true
		if bc.config.StopOnError {
			bc.remaining = nil
		}
	}

	var toIssue []*project.Rule
	for len(bc.remaining) > 0 {
		r := bc.remaining[0]
		blocked := false
		for x := range bc.inFlight {
			dependsOnInFlight, err := bc.g.DependsOn(r.Path(), x)
			if err != nil {
				bc.mu.Unlock()
				// Both paths came from this same graph; a lookup
				// failure here would be a programming error, not a
				// build-time condition callers can react to.
				panic(types.WrapError(types.ErrProgramming, "pump: depends? lookup failed", err))
			}
			if dependsOnInFlight {
				blocked = true
				break
			}
		}
		if blocked {
			break
		}
		bc.remaining = bc.remaining[1:]
		bc.inFlight[r.Path()] = true
		toIssue = append(toIssue, r)
	}
	bc.mu.Unlock()

	for _, r := range toIssue {
		bc.issue(r)
	}

	bc.mu.Lock()
	finished := len(bc.remaining) == 0 && len(bc.inFlight) == 0
	anyFailed := bc.anyFailed
	alreadyResolved := bc.overall.Resolved()
	bc.mu.Unlock()

	if finished && !alreadyResolved {
		if anyFailed {
			bc.overall.Fail(errors.New("build failed: one or more rules did not succeed"))
		} else {
			bc.overall.Succeed(nil)
		}
	}
}

// issue constructs r's RuleContext and either cascades a predecessor
// failure or invokes the rule body's Begin (spec §4.6 step 5). Called
// with bc.mu NOT held; r.Path() is already reserved in bc.inFlight by
// the caller.
func (bc *BuildContext) issue(r *project.Rule) {
	rc, err := newRuleContext(bc, r)
	if err != nil {
		rc = &ruleContext{bc: bc, rule: r, status: types.Waiting, completion: future.New()}
		bc.setState(r.Path(), rc)
		bc.registerCompletion(rc)
		rc.Fail(err)
		return
	}
	bc.setState(r.Path(), rc)
	bc.registerCompletion(rc)

	if rc.CheckPredecessorFailures() {
		rc.CascadeFailure()
		return
	}

	rc.status = types.Running
	rc.startTime = time.Now()
	bc.config.Callbacks.RuleBegin(r.Path())
	if bc.notifier != nil {
		bc.notifier.Publish("rule.begin", r.Path(), nil)
	}
	r.Body.Begin(rc)
}

func (bc *BuildContext) setState(path string, rc *ruleContext) {
	bc.mu.Lock()
	bc.states[path] = rc
	bc.mu.Unlock()
}

// registerCompletion wires rc.completion so that, whenever it resolves
// (synchronously inline for a cascade/construction failure, or later from
// a worker callback), the rule is removed from in_flight and the pump
// step re-enters with the outcome.
func (bc *BuildContext) registerCompletion(rc *ruleContext) {
	path := rc.rule.Path()
	rc.completion.OnSuccess(func(any) {
		outputs := append([]string(nil), rc.outPaths...)
		bc.mu.Lock()
		delete(bc.inFlight, path)
		bc.mu.Unlock()
		bc.config.Callbacks.RuleSucceeded(path, outputs)
		if bc.notifier != nil {
			bc.notifier.Publish("rule.succeeded", path, outputs)
		}
		bc.pump(false)
	})
	rc.completion.OnFailure(func(err error) {
		bc.mu.Lock()
		delete(bc.inFlight, path)
		bc.mu.Unlock()
		bc.config.Callbacks.RuleFailed(path, err)
		if bc.notifier != nil {
			bc.notifier.Publish("rule.failed", path, err)
		}
		bc.pump(true)
	})
}

func (bc *BuildContext) finishBuild(success bool) {
	bc.config.Callbacks.BuildFinished(success)
	if bc.notifier != nil {
		bc.notifier.Publish("build.finished", "", success)
	}
	if bc.ownsExecutor {
		// finishBuild can run on the Pool's dispatcher goroutine, and a
		// graceful Close waits for that goroutine to exit, so close from
		// a separate goroutine.
		go func() { _ = bc.executor.Close(true) }()
	}
}

// ruleState returns the RuleContext for path, or nil if it was never
// issued. Exported-package-internal: used by ruleContext's own src_paths
// resolution (a predecessor's recorded outputs) and predecessor-failure
// checks.
func (bc *BuildContext) ruleState(path string) *ruleContext {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.states[path]
}

// RuleResult returns ref's terminal status and output paths, or
// (Waiting, nil) if it was never scheduled — get_rule_results (spec
// §4.6 Observability).
func (bc *BuildContext) RuleResult(ref string) (types.Status, []string) {
	rc := bc.ruleState(ref)
	if rc == nil {
		return types.Waiting, nil
	}
	return rc.status, append([]string(nil), rc.outPaths...)
}

// RuleOutputs returns just ref's output path list — get_rule_outputs.
func (bc *BuildContext) RuleOutputs(ref string) []string {
	_, outputs := bc.RuleResult(ref)
	return outputs
}
