package project

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-build/anvil/types"
)

func mustRule(t *testing.T, name string, srcs, deps []string) *Rule {
	t.Helper()
	r, err := NewRule(name, srcs, deps, "", nil)
	require.NoError(t, err)
	return r
}

func TestModuleDuplicateRuleName(t *testing.T) {
	m := NewModule("pkg/BUILD")
	require.NoError(t, m.AddRule(mustRule(t, "a", nil, nil)))

	err := m.AddRule(mustRule(t, "a", nil, nil))
	assert.True(t, errors.Is(err, types.ErrDuplicateRule))
}

func TestProjectResolveRuleLocalAndCrossModule(t *testing.T) {
	a := NewModule("pkg/BUILD")
	require.NoError(t, a.AddRule(mustRule(t, "x", nil, nil)))

	b := NewModule("other/BUILD")
	require.NoError(t, b.AddRule(mustRule(t, "y", nil, nil)))

	p := NewProject("/root", nil)
	require.NoError(t, p.AddModule(a))
	require.NoError(t, p.AddModule(b))

	rule, err := p.ResolveRule(":x", "pkg/BUILD")
	require.NoError(t, err)
	assert.Equal(t, "pkg/BUILD:x", rule.Path())

	rule, err = p.ResolveRule("other/BUILD:y", "pkg/BUILD")
	require.NoError(t, err)
	assert.Equal(t, "other/BUILD:y", rule.Path())

	_, err = p.ResolveRule(":nope", "pkg/BUILD")
	assert.Error(t, err)
}

func TestProjectDuplicateModulePath(t *testing.T) {
	p := NewProject("/root", nil)
	require.NoError(t, p.AddModule(NewModule("pkg/BUILD")))
	assert.Error(t, p.AddModule(NewModule("pkg/BUILD")))
}
