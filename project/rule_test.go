package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleValidatesName(t *testing.T) {
	_, err := NewRule("", nil, nil, "", nil)
	assert.Error(t, err)

	_, err = NewRule(":bad", nil, nil, "", nil)
	assert.Error(t, err)

	_, err = NewRule("has space", nil, nil, "", nil)
	assert.Error(t, err)
}

func TestNewRuleRequiresColonInDeps(t *testing.T) {
	_, err := NewRule("a", nil, []string{"not-a-rule-ref"}, "", nil)
	assert.Error(t, err)

	r, err := NewRule("a", nil, []string{":b"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{":b"}, r.Deps)
}

func TestSetParentModuleWriteOnce(t *testing.T) {
	r, err := NewRule("a", nil, nil, "", nil)
	require.NoError(t, err)
	m := NewModule("pkg/BUILD")

	require.NoError(t, r.SetParentModule(m))
	assert.Equal(t, "pkg/BUILD:a", r.Path())

	assert.Error(t, r.SetParentModule(m))
}

func TestCacheKeyStableAndSensitive(t *testing.T) {
	a, err := NewRule("a", []string{"x.txt"}, nil, "", nil)
	require.NoError(t, err)
	a.Type = "file_set"
	b, err := NewRule("a", []string{"x.txt"}, nil, "", nil)
	require.NoError(t, err)
	b.Type = "file_set"

	ka, err := a.CacheKey()
	require.NoError(t, err)
	kb, err := b.CacheKey()
	require.NoError(t, err)
	assert.Equal(t, ka, kb)

	b.Srcs = []string{"y.txt"}
	kb2, err := b.CacheKey()
	require.NoError(t, err)
	assert.NotEqual(t, ka, kb2)
}

func TestRuleIncludedByWhenExpression(t *testing.T) {
	r, err := NewRule("a", nil, nil, "", nil)
	require.NoError(t, err)

	included, err := r.Included(nil)
	require.NoError(t, err)
	assert.True(t, included)

	r.When = "env == \"prod\""
	included, err = r.Included(map[string]any{"env": "dev"})
	require.NoError(t, err)
	assert.False(t, included)

	included, err = r.Included(map[string]any{"env": "prod"})
	require.NoError(t, err)
	assert.True(t, included)
}
