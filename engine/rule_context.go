package engine

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/anvil-build/anvil/future"
	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

var _ types.RuleContext = (*ruleContext)(nil)

// ruleContext is the concrete types.RuleContext the BuildContext hands to
// a rule's RuleBody.Begin (spec §4.7). One is created exactly once per
// rule per build, owned by its BuildContext, and mutated only by that
// rule's own flow (§5's "RuleContexts are owned by the BuildContext and
// only mutated by their own rule flow").
type ruleContext struct {
	bc   *BuildContext
	rule *project.Rule

	status    types.Status
	startTime time.Time
	endTime   time.Time

	srcPaths []string
	outPaths []string
	err      error

	completion *future.Future
}

func newRuleContext(bc *BuildContext, r *project.Rule) (*ruleContext, error) {
	srcs, err := resolveSrcPaths(bc, r)
	if err != nil {
		return nil, err
	}
	return &ruleContext{
		bc:         bc,
		rule:       r,
		status:     types.Waiting,
		srcPaths:   srcs,
		completion: future.New(),
	}, nil
}

// resolveSrcPaths computes src_paths once at construction, per spec
// §4.7: a rule-path entry substitutes the referenced rule's recorded
// output list (the predecessor must already be terminal, since the
// driver never issues a rule while a predecessor is still pending);
// everything else is a file/glob relative to the parent module's
// directory, filtered by src_filter if set and the entry isn't a rule
// reference (Open Question (iii), resolved: src_filter never applies to
// rule outputs).
func resolveSrcPaths(bc *BuildContext, r *project.Rule) ([]string, error) {
	moduleDir := filepath.Dir(r.ParentModule().Path)
	seen := make(map[string]bool)
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, src := range r.Srcs {
		if project.IsRulePath(src) {
			dep, err := bc.project.ResolveRule(src, r.ParentModule().Path)
			if err != nil {
				return nil, err
			}
			depCtx := bc.ruleState(dep.Path())
			if depCtx == nil || !depCtx.status.Terminal() {
				return nil, types.NewError(types.ErrProgramming, "rule "+r.Path()+" referenced "+dep.Path()+" before it ran")
			}
			for _, p := range depCtx.outPaths {
				add(p)
			}
			continue
		}

		pattern := src
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(moduleDir, pattern)
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, types.NewError(types.ErrBadName, "invalid glob pattern: "+src)
		}
		matches, err := doublestar.FilepathGlob(filepath.ToSlash(pattern))
		if err != nil {
			return nil, types.WrapError(types.ErrIO, "expanding "+src, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(src, "*?[") {
			if _, statErr := os.Stat(pattern); statErr != nil {
				return nil, types.WrapError(types.ErrIO, "source file not found: "+src, statErr)
			}
		}
		for _, m := range matches {
			if r.SrcFilter != "" {
				ok, err := doublestar.Match(r.SrcFilter, filepath.Base(m))
				if err != nil {
					return nil, types.WrapError(types.ErrBadName, "invalid src_filter: "+r.SrcFilter, err)
				}
				if !ok {
					continue
				}
			}
			add(m)
		}
	}
	return out, nil
}

func (rc *ruleContext) SrcPaths() []string {
	return append([]string(nil), rc.srcPaths...)
}

func (rc *ruleContext) AppendOutputPaths(paths ...string) {
	rc.outPaths = append(rc.outPaths, paths...)
}

// ruleDir is the rule's parent module directory, relative to the build
// environment's root, the anchor OutPath/GenPath preserve.
func (rc *ruleContext) ruleDir() string {
	dir := filepath.Dir(rc.rule.ParentModule().Path)
	rel, err := filepath.Rel(rc.bc.env.Root, dir)
	if err != nil {
		return dir
	}
	return rel
}

func (rc *ruleContext) OutPath(name, suffix string) string {
	if name == "" {
		name = rc.rule.Name
	}
	return rc.bc.env.OutPath(rc.ruleDir(), name, suffix)
}

func (rc *ruleContext) GenPath(name, suffix string) string {
	if name == "" {
		name = rc.rule.Name
	}
	return rc.bc.env.GenPath(rc.ruleDir(), name, suffix)
}

func (rc *ruleContext) OutPathForSrc(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return rc.OutPath(base, filepath.Ext(src))
}

func (rc *ruleContext) GenPathForSrc(src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return rc.GenPath(base, filepath.Ext(src))
}

func (rc *ruleContext) EnsureOutputExists(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.WrapError(types.ErrIO, "creating output directory "+dir, err)
	}
	return nil
}

func (rc *ruleContext) RunTaskAsync(task types.Task) types.Future {
	return rc.bc.executor.Submit(task)
}

// Chain binds fs to the rule's completion (spec §4.7): success once every
// input succeeds, failure with the first-registered already-failed
// input's error (Open Question (ii)).
func (rc *ruleContext) Chain(fs ...types.Future) {
	plain := make([]*future.Future, 0, len(fs))
	for _, f := range fs {
		if pf, ok := f.(*future.Future); ok {
			plain = append(plain, pf)
			continue
		}
		// Adapt a foreign types.Future into a *future.Future so Join
		// can compose it uniformly.
		adapter := future.New()
		f.OnSuccess(func(result any) { adapter.Succeed(result) })
		f.OnFailure(func(err error) { adapter.Fail(err) })
		plain = append(plain, adapter)
	}
	joined := future.Join(plain)
	joined.OnSuccess(func(any) { rc.Succeed() })
	joined.OnFailure(func(err error) { rc.Fail(err) })
}

// ChainErrback forwards only f's failure to the rule's completion,
// leaving success to some other chained future or an explicit Succeed.
func (rc *ruleContext) ChainErrback(f types.Future) {
	f.OnFailure(func(err error) { rc.Fail(err) })
}

func (rc *ruleContext) CheckPredecessorFailures() bool {
	for _, dep := range rc.predecessorPaths() {
		if st := rc.bc.ruleState(dep); st != nil && st.status == types.Failed {
			return true
		}
	}
	return false
}

// predecessorPaths resolves every rule reference to a full rule path, the
// key BuildContext's states are stored under; a bare ":name" reference
// resolves against the rule's own module.
func (rc *ruleContext) predecessorPaths() []string {
	refs := rc.rule.AllReferences()
	paths := make([]string, 0, len(refs))
	for _, ref := range refs {
		if dep, err := rc.bc.project.ResolveRule(ref, rc.rule.ParentModule().Path); err == nil {
			paths = append(paths, dep.Path())
		}
	}
	return paths
}

// CascadeFailure transitions straight to Failed with a Cascaded error,
// without invoking Begin — spec §4.6 step 5's short-circuit for rules
// whose predecessor already failed.
func (rc *ruleContext) CascadeFailure() {
	rc.Fail(types.NewError(types.ErrCascaded, "predecessor of "+rc.rule.Path()+" failed"))
}

func (rc *ruleContext) Succeed() {
	rc.finish(types.Succeeded, nil)
	rc.completion.Succeed(rc.outPaths)
}

func (rc *ruleContext) Fail(err error) {
	rc.finish(types.Failed, err)
	rc.completion.Fail(err)
}

func (rc *ruleContext) finish(status types.Status, err error) {
	if rc.status.Terminal() {
		panic(types.NewError(types.ErrProgramming, "rule "+rc.rule.Path()+" completed twice"))
	}
	rc.endTime = time.Now()
	rc.status = status
	rc.err = err
	recordRuleResult(status.String(), rc.endTime.Sub(rc.startTime).Seconds())
}

func (rc *ruleContext) Logger() types.Logger {
	return rc.bc.config.Logger.With("rule", rc.rule.Path())
}
