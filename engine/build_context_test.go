package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-build/anvil/executor"
	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

// passThroughBody is scenario 1/3's file-set stand-in: it records its
// resolved srcs as outputs and succeeds immediately.
type passThroughBody struct{}

func (passThroughBody) Type() string                     { return "pass_through" }
func (b passThroughBody) New() types.RuleBody            { return b }
func (passThroughBody) Init(types.Properties) error      { return nil }
func (passThroughBody) Begin(ctx types.RuleContext) {
	ctx.AppendOutputPaths(ctx.SrcPaths()...)
	ctx.Succeed()
}

type alwaysFailBody struct{}

func (alwaysFailBody) Type() string                  { return "always_fail" }
func (b alwaysFailBody) New() types.RuleBody         { return b }
func (alwaysFailBody) Init(types.Properties) error   { return nil }
func (alwaysFailBody) Begin(ctx types.RuleContext) {
	ctx.Fail(errors.New("deliberate failure"))
}

func newTestContext(t *testing.T, dir string) (*project.Project, *project.Module) {
	t.Helper()
	m := project.NewModule(filepath.Join(dir, "BUILD"))
	p := project.NewProject(dir, nil)
	require.NoError(t, p.AddModule(m))
	return p, m
}

func TestScenarioTrivialPassThrough(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	p, m := newTestContext(t, dir)
	r, err := project.NewRule("a", []string{"a.txt"}, nil, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()))
	bc := NewBuildContext(env, p, executor.NewInProcess(), cfg)

	ok, err := bc.ExecuteSync([]string{r.Path()})
	require.NoError(t, err)
	assert.True(t, ok)

	status, outputs := bc.RuleResult(r.Path())
	assert.Equal(t, types.Succeeded, status)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, outputs)
}

func TestScenarioGlobAndFilter(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	p, m := newTestContext(t, dir)
	r, err := project.NewRule("local_txt", []string{"*.txt"}, nil, "*.txt", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()))
	bc := NewBuildContext(env, p, executor.NewInProcess(), cfg)

	ok, err := bc.ExecuteSync([]string{r.Path()})
	require.NoError(t, err)
	assert.True(t, ok)

	_, outputs := bc.RuleResult(r.Path())
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}, outputs)
}

func TestScenarioRuleReference(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	p, m := newTestContext(t, dir)
	a, err := project.NewRule("a", []string{"a.txt"}, nil, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(a))
	ref, err := project.NewRule("ref", []string{a.Path()}, nil, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(ref))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()))
	bc := NewBuildContext(env, p, executor.NewInProcess(), cfg)

	ok, err := bc.ExecuteSync([]string{ref.Path()})
	require.NoError(t, err)
	assert.True(t, ok)

	_, aOutputs := bc.RuleResult(a.Path())
	_, refOutputs := bc.RuleResult(ref.Path())
	assert.Equal(t, aOutputs, refOutputs)
}

func TestScenarioFailureCascade(t *testing.T) {
	dir := t.TempDir()
	p, m := newTestContext(t, dir)
	a, err := project.NewRule("a", nil, nil, "", alwaysFailBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(a))
	b, err := project.NewRule("b", nil, []string{a.Path()}, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(b))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()))
	bc := NewBuildContext(env, p, executor.NewInProcess(), cfg)

	ok, err := bc.ExecuteSync([]string{b.Path()})
	require.NoError(t, err)
	assert.False(t, ok)

	aStatus, _ := bc.RuleResult(a.Path())
	bStatus, _ := bc.RuleResult(b.Path())
	assert.Equal(t, types.Failed, aStatus)
	assert.Equal(t, types.Failed, bStatus)
}

func TestScenarioFailureCascadeStopsUnrelatedWithStopOnError(t *testing.T) {
	dir := t.TempDir()
	p, m := newTestContext(t, dir)
	a, err := project.NewRule("a", nil, nil, "", alwaysFailBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(a))
	b, err := project.NewRule("b", nil, []string{a.Path()}, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(b))
	c, err := project.NewRule("c", nil, nil, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(c))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()), types.WithStopOnError(true))
	bc := NewBuildContext(env, p, executor.NewInProcess(), cfg)

	ok, _ := bc.ExecuteSync([]string{b.Path(), c.Path()})
	assert.False(t, ok)

	cStatus, _ := bc.RuleResult(c.Path())
	assert.Equal(t, types.Waiting, cStatus)
}

func TestScenarioCycleDetection(t *testing.T) {
	dir := t.TempDir()
	p, m := newTestContext(t, dir)
	a, err := project.NewRule("a", nil, []string{m.Path + ":b"}, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(a))
	b, err := project.NewRule("b", nil, []string{m.Path + ":a"}, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(b))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()))
	bc := NewBuildContext(env, p, executor.NewInProcess(), cfg)

	f := bc.Execute([]string{a.Path()})
	assert.True(t, f.Resolved())
	assert.False(t, f.Succeeded())
}

func TestScenarioParallelIndependence(t *testing.T) {
	dir := t.TempDir()
	p, m := newTestContext(t, dir)
	var leaves []*project.Rule
	for _, name := range []string{"a1", "a2", "a3"} {
		r, err := project.NewRule(name, nil, nil, "", passThroughBody{})
		require.NoError(t, err)
		require.NoError(t, m.AddRule(r))
		leaves = append(leaves, r)
	}
	deps := make([]string, 0, len(leaves))
	for _, r := range leaves {
		deps = append(deps, r.Path())
	}
	root, err := project.NewRule("b", nil, deps, "", passThroughBody{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(root))

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(types.NopLogger()))
	bc := NewBuildContext(env, p, executor.NewPool(3, types.NopLogger()), cfg)

	ok, err := bc.ExecuteSync([]string{root.Path()})
	require.NoError(t, err)
	assert.True(t, ok)

	for _, r := range leaves {
		status, _ := bc.RuleResult(r.Path())
		assert.Equal(t, types.Succeeded, status)
	}
}
