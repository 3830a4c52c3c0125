package project

import (
	"fmt"
	"sort"

	"github.com/anvil-build/anvil/types"
)

// Module is a flat namespace of uniquely named Rules, identified by a
// path (typically the filesystem path of the plug-in file that declared
// it), per spec §3.
type Module struct {
	Path  string
	rules map[string]*Rule
}

func NewModule(path string) *Module {
	return &Module{Path: path, rules: make(map[string]*Rule)}
}

// AddRule binds rule to m. Fails with DuplicateRule if m already has a
// rule of that name.
func (m *Module) AddRule(rule *Rule) error {
	if _, exists := m.rules[rule.Name]; exists {
		return types.NewError(types.ErrDuplicateRule, fmt.Sprintf("a rule named %q is already defined in module %q", rule.Name, m.Path))
	}
	if err := rule.SetParentModule(m); err != nil {
		return err
	}
	m.rules[rule.Name] = rule
	return nil
}

// AddRules adds each rule in order, stopping at the first failure.
func (m *Module) AddRules(rules []*Rule) error {
	for _, r := range rules {
		if err := m.AddRule(r); err != nil {
			return err
		}
	}
	return nil
}

// GetRule looks a rule up by bare name (leading ':' accepted and
// stripped). Returns nil if not found.
func (m *Module) GetRule(name string) *Rule {
	if len(name) > 0 && name[0] == ':' {
		name = name[1:]
	}
	return m.rules[name]
}

// RuleList returns every rule in the module, sorted by name for
// deterministic iteration.
func (m *Module) RuleList() []*Rule {
	out := make([]*Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
