package project

import (
	"fmt"

	"github.com/anvil-build/anvil/types"
)

// ModuleResolver lazily loads a Module on first reference to a path the
// Project does not yet have — the collaborator spec §3 describes as
// loading modules "directly or through a module resolver that parses
// plug-in files" (package plugin provides the concrete implementation).
type ModuleResolver interface {
	Resolve(modulePath string) (*Module, error)
}

// Project is a mapping from module path to Module plus a ModuleResolver,
// per spec §3.
type Project struct {
	Root     string
	Props    types.Properties
	resolver ModuleResolver
	modules  map[string]*Module
}

func NewProject(root string, resolver ModuleResolver) *Project {
	return &Project{
		Root:     root,
		Props:    types.NewProperties(),
		resolver: resolver,
		modules:  make(map[string]*Module),
	}
}

// AddModule registers m. Fails with DuplicateModule if the path is
// already taken.
func (p *Project) AddModule(m *Module) error {
	if _, exists := p.modules[m.Path]; exists {
		return types.NewError(types.ErrDuplicateModule, fmt.Sprintf("a module at path %q is already defined", m.Path))
	}
	p.modules[m.Path] = m
	return nil
}

// GetModule returns the module at path, resolving it through the
// ModuleResolver on first reference if the Project doesn't have it yet
// and a resolver was configured.
func (p *Project) GetModule(path string) (*Module, error) {
	if m, ok := p.modules[path]; ok {
		return m, nil
	}
	if p.resolver == nil {
		return nil, types.NewError(types.ErrUnknownRule, "no module at path "+path+" and no resolver configured")
	}
	m, err := p.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := p.AddModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Modules returns every registered module. Does not trigger resolution.
func (p *Project) Modules() []*Module {
	out := make([]*Module, 0, len(p.modules))
	for _, m := range p.modules {
		out = append(out, m)
	}
	return out
}

// ResolveRule resolves a rule reference against requestingModulePath (the
// module path to use for a bare ":name" reference). ref must be a rule
// path (contain ':'); mirrors original_source/build/project.py's
// resolve_rule.
func (p *Project) ResolveRule(ref, requestingModulePath string) (*Rule, error) {
	modulePath, name, ok := SplitRulePath(ref)
	if !ok {
		return nil, types.NewError(types.ErrBadName, "not a rule reference: "+ref)
	}
	if modulePath == "" {
		modulePath = requestingModulePath
	}
	m, err := p.GetModule(modulePath)
	if err != nil {
		return nil, err
	}
	rule := m.GetRule(name)
	if rule == nil {
		return nil, types.NewError(types.ErrUnknownRule, "no rule named "+name+" in module "+modulePath)
	}
	return rule, nil
}

// AllRules returns every rule across every currently-registered module.
// Does not trigger lazy resolution of modules not yet referenced.
func (p *Project) AllRules() []*Rule {
	var out []*Rule
	for _, m := range p.modules {
		out = append(out, m.RuleList()...)
	}
	return out
}
