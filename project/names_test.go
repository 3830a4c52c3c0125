package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRulePath(t *testing.T) {
	assert.True(t, IsRulePath(":a"))
	assert.True(t, IsRulePath("pkg/BUILD:a"))
	assert.False(t, IsRulePath("a.txt"))
	assert.False(t, IsRulePath("*.txt"))
	assert.False(t, IsRulePath(""))
}

func TestSplitRulePath(t *testing.T) {
	mod, name, ok := SplitRulePath(":a")
	assert.True(t, ok)
	assert.Equal(t, "", mod)
	assert.Equal(t, "a", name)

	mod, name, ok = SplitRulePath("sub/dir:a")
	assert.True(t, ok)
	assert.Equal(t, "sub/dir", mod)
	assert.Equal(t, "a", name)

	_, _, ok = SplitRulePath("a.txt")
	assert.False(t, ok)
}

func TestValidateNamesRejectsWhitespace(t *testing.T) {
	assert.Error(t, ValidateNames([]string{" a"}, false))
	assert.Error(t, ValidateNames([]string{"a "}, false))
	assert.NoError(t, ValidateNames([]string{"a.txt", ":b"}, false))
}

func TestValidateNamesRequireRulePath(t *testing.T) {
	assert.Error(t, ValidateNames([]string{"a.txt"}, true))
	assert.NoError(t, ValidateNames([]string{":a"}, true))
}
