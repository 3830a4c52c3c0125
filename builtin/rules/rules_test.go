package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-build/anvil/engine"
	"github.com/anvil-build/anvil/executor"
	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

func setup(t *testing.T, files map[string]string) (dir string, p *project.Project, m *project.Module) {
	t.Helper()
	dir = t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	m = project.NewModule(filepath.Join(dir, "BUILD"))
	p = project.NewProject(dir, nil)
	require.NoError(t, p.AddModule(m))
	return dir, p, m
}

func TestFileSetRulePassesThroughSrcs(t *testing.T) {
	dir, p, m := setup(t, map[string]string{"a.txt": "a"})
	r, err := project.NewRule("fs", []string{"a.txt"}, nil, "", &FileSetRule{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))

	env := types.NewEnvironment(dir)
	bc := engine.NewBuildContext(env, p, executor.NewInProcess(), types.NewConfig(types.WithLogger(types.NopLogger())))
	ok, err := bc.ExecuteSync([]string{r.Path()})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, bc.RuleOutputs(r.Path()))
}

func TestCopyRuleCopiesEachSrc(t *testing.T) {
	dir, p, m := setup(t, map[string]string{"a.txt": "hello", "b.txt": "world"})
	r, err := project.NewRule("cp", []string{"a.txt", "b.txt"}, nil, "", &CopyRule{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))

	env := types.NewEnvironment(dir)
	bc := engine.NewBuildContext(env, p, executor.NewPool(2, types.NopLogger()), types.NewConfig(types.WithLogger(types.NopLogger())))
	ok, err := bc.ExecuteSync([]string{r.Path()})
	require.NoError(t, err)
	assert.True(t, ok)

	outputs := bc.RuleOutputs(r.Path())
	require.Len(t, outputs, 2)
	for _, out := range outputs {
		content, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.NotEmpty(t, content)
	}
}

func TestConcatRuleJoinsSrcsInOrder(t *testing.T) {
	dir, p, m := setup(t, map[string]string{"a.txt": "AAA", "b.txt": "BBB"})
	r, err := project.NewRule("joined", []string{"a.txt", "b.txt"}, nil, "", &ConcatRule{cfg: ConcatConfiguration{Out: "joined.txt"}})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))

	env := types.NewEnvironment(dir)
	bc := engine.NewBuildContext(env, p, executor.NewInProcess(), types.NewConfig(types.WithLogger(types.NopLogger())))
	ok, err := bc.ExecuteSync([]string{r.Path()})
	require.NoError(t, err)
	assert.True(t, ok)

	outputs := bc.RuleOutputs(r.Path())
	require.Len(t, outputs, 1)
	content, err := os.ReadFile(outputs[0])
	require.NoError(t, err)
	assert.Equal(t, "AAABBB", string(content))
}

func TestCopyRuleWithNoSrcsSucceedsTrivially(t *testing.T) {
	dir, p, m := setup(t, nil)
	r, err := project.NewRule("empty", nil, nil, "", &CopyRule{})
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))

	env := types.NewEnvironment(dir)
	bc := engine.NewBuildContext(env, p, executor.NewInProcess(), types.NewConfig(types.WithLogger(types.NopLogger())))
	ok, err := bc.ExecuteSync([]string{r.Path()})
	require.NoError(t, err)
	assert.True(t, ok)
}
