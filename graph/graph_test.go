package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-build/anvil/project"
)

func rule(t *testing.T, m *project.Module, name string, deps ...string) *project.Rule {
	t.Helper()
	r, err := project.NewRule(name, nil, deps, "", nil)
	require.NoError(t, err)
	require.NoError(t, m.AddRule(r))
	return r
}

func TestSequenceOrdersPredecessorsFirst(t *testing.T) {
	m := project.NewModule("pkg/BUILD")
	rule(t, m, "a")
	rule(t, m, "b", "pkg/BUILD:a")
	rule(t, m, "c", "pkg/BUILD:b")

	p := project.NewProject("/root", nil)
	require.NoError(t, p.AddModule(m))

	g, err := Build(p)
	require.NoError(t, err)

	seq, err := g.Sequence([]string{"pkg/BUILD:c"})
	require.NoError(t, err)

	require.Len(t, seq, 3)
	assert.Equal(t, "pkg/BUILD:a", seq[0].Path())
	assert.Equal(t, "pkg/BUILD:b", seq[1].Path())
	assert.Equal(t, "pkg/BUILD:c", seq[2].Path())
}

func TestDependsOnIsReflexiveAndTransitive(t *testing.T) {
	m := project.NewModule("pkg/BUILD")
	rule(t, m, "a")
	rule(t, m, "b", "pkg/BUILD:a")
	rule(t, m, "c", "pkg/BUILD:b")

	p := project.NewProject("/root", nil)
	require.NoError(t, p.AddModule(m))
	g, err := Build(p)
	require.NoError(t, err)

	ok, err := g.DependsOn("pkg/BUILD:a", "pkg/BUILD:a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.DependsOn("pkg/BUILD:c", "pkg/BUILD:a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.DependsOn("pkg/BUILD:a", "pkg/BUILD:c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCycleDetected(t *testing.T) {
	m := project.NewModule("pkg/BUILD")
	rule(t, m, "a", "pkg/BUILD:b")
	rule(t, m, "b", "pkg/BUILD:a")

	p := project.NewProject("/root", nil)
	require.NoError(t, p.AddModule(m))

	_, err := Build(p)
	assert.Error(t, err)
}

func TestSequenceUnknownTarget(t *testing.T) {
	m := project.NewModule("pkg/BUILD")
	rule(t, m, "a")
	p := project.NewProject("/root", nil)
	require.NoError(t, p.AddModule(m))
	g, err := Build(p)
	require.NoError(t, err)

	_, err = g.Sequence([]string{"pkg/BUILD:nope"})
	assert.Error(t, err)
}
