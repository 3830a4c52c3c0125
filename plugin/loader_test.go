package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvil-build/anvil/registry"
	"github.com/anvil-build/anvil/types"
)

type recordingBody struct {
	cfg types.Properties
}

func (b *recordingBody) Type() string { return "file_set" }
func (b *recordingBody) New() types.RuleBody {
	return &recordingBody{}
}
func (b *recordingBody) Init(attrs types.Properties) error {
	b.cfg = attrs
	return nil
}
func (b *recordingBody) Begin(types.RuleContext) {}

func writeModule(t *testing.T, dir, script string) string {
	t.Helper()
	path := filepath.Join(dir, "BUILD.js")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))
	return path
}

func TestLoaderDeclaresRulesFromScript(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	require.NoError(t, reg.Register("file_set", func() types.RuleBody { return &recordingBody{} }))

	path := writeModule(t, dir, `
file_set({name: "a", srcs: ["x.txt"]});
file_set({name: "b", srcs: [":a"], deps: []});
`)

	l := NewLoader(reg, types.NewProperties(), types.NopLogger())
	m, err := l.Resolve(path)
	require.NoError(t, err)

	a := m.GetRule("a")
	require.NotNil(t, a)
	assert.Equal(t, []string{"x.txt"}, a.Srcs)

	b := m.GetRule("b")
	require.NotNil(t, b)
	assert.Equal(t, []string{":a"}, b.Srcs)
}

func TestLoaderExcludesRuleFailingWhenExpression(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	require.NoError(t, reg.Register("file_set", func() types.RuleBody { return &recordingBody{} }))

	path := writeModule(t, dir, `
file_set({name: "prod_only", srcs: ["x.txt"], when: "env == 'prod'"});
`)

	l := NewLoader(reg, types.Properties{"env": "dev"}, types.NopLogger())
	m, err := l.Resolve(path)
	require.NoError(t, err)

	assert.Nil(t, m.GetRule("prod_only"))
}

func TestLoaderRejectsUnregisteredRuleType(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()

	path := writeModule(t, dir, `unknown_type({name: "a"});`)

	l := NewLoader(reg, types.NewProperties(), types.NopLogger())
	_, err := l.Resolve(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownSymbol)
}

func TestLoaderPassesConfigurationToInit(t *testing.T) {
	dir := t.TempDir()
	reg := registry.New()
	require.NoError(t, reg.Register("file_set", func() types.RuleBody { return &recordingBody{} }))

	path := writeModule(t, dir, `
file_set({name: "a", srcs: ["x.txt"], configuration: {mode: "strict"}});
`)

	l := NewLoader(reg, types.NewProperties(), types.NopLogger())
	m, err := l.Resolve(path)
	require.NoError(t, err)

	body, ok := m.GetRule("a").Body.(*recordingBody)
	require.True(t, ok)
	assert.Equal(t, "strict", body.cfg["mode"])
}
