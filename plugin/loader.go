// Package plugin implements the module resolver spec §4.3 describes: a
// loader that evaluates a build file as a small JavaScript DSL via goja,
// binding one callable per registered rule type into the script's global
// scope, and folding every rule declared during evaluation into a
// project.Module.
//
// The shape is grounded on utils/js/js_engine.go's GojaJsEngine
// (goja.New, vm.Set, goja.AssertFunction) and
// components/transform/js_filter_node.go's compile-then-call pattern,
// retargeted from evaluating one user script per message onto evaluating
// one declarative build file per module.
package plugin

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/mitchellh/mapstructure"

	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/registry"
	"github.com/anvil-build/anvil/types"
)

var _ project.ModuleResolver = (*Loader)(nil)

// Loader resolves a module path by reading it as a file and evaluating
// it as a plug-in script against reg's registered rule types.
type Loader struct {
	reg    *registry.RuleRegistry
	props  types.Properties
	logger types.Logger
}

// NewLoader constructs a Loader. reg supplies the rule-type tags bound
// into every evaluated script's global scope; props is the project's
// global properties, consulted for each declared rule's When expression.
func NewLoader(reg *registry.RuleRegistry, props types.Properties, logger types.Logger) *Loader {
	if logger == nil {
		logger = types.NopLogger()
	}
	return &Loader{reg: reg, props: props, logger: logger}
}

// Resolve reads modulePath, evaluates it as a build-file script, and
// returns the Module it declares. Fails with ErrIO if the file cannot be
// read, ErrUnknownSymbol if the script calls an unregistered rule-type
// function or references one from global scope, or any error a rule
// body's Init returns.
func (l *Loader) Resolve(modulePath string) (*project.Module, error) {
	source, err := os.ReadFile(modulePath)
	if err != nil {
		return nil, types.WrapError(types.ErrIO, "reading plug-in file "+modulePath, err)
	}

	vm := goja.New()

	// collection is spec §4.3's per-load collection, fed directly by the
	// JS-bound constructor closures below; dslByName carries the
	// srcs/deps/src_filter/when that SafeRuleSlice can't (it holds only a
	// name and a RuleBody, since holding a project.Rule would give types
	// an import on project). SafeRuleSlice has its own lock and dslByName
	// is guarded by mu, but in practice goja never calls back into Go
	// concurrently during a single RunString — the locks only document
	// that constraint, they don't relax it.
	collection := &types.SafeRuleSlice{}
	var mu sync.Mutex
	dslByName := make(map[string]types.RuleDSL)
	var bindErr error

	for _, tag := range l.reg.Tags() {
		tag := tag
		vm.Set(tag, func(call goja.FunctionCall) goja.Value {
			if bindErr != nil {
				return goja.Undefined()
			}
			if len(call.Arguments) != 1 {
				bindErr = types.NewError(types.ErrParse, fmt.Sprintf("%s() takes exactly one object argument", tag))
				return goja.Undefined()
			}
			raw, ok := call.Argument(0).Export().(map[string]any)
			if !ok {
				bindErr = types.NewError(types.ErrParse, fmt.Sprintf("%s() argument must be an object", tag))
				return goja.Undefined()
			}

			var dsl types.RuleDSL
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &dsl, WeaklyTypedInput: true})
			if err != nil {
				bindErr = types.WrapError(types.ErrParse, "building rule decoder", err)
				return goja.Undefined()
			}
			if err := dec.Decode(raw); err != nil {
				bindErr = types.WrapError(types.ErrParse, "decoding "+tag+"() arguments", err)
				return goja.Undefined()
			}
			dsl.Type = tag

			body, err := l.reg.NewRuleBody(tag)
			if err != nil {
				bindErr = err
				return goja.Undefined()
			}
			if err := body.Init(dsl.Configuration); err != nil {
				bindErr = types.WrapError(types.ErrParse, "initializing rule "+dsl.Name, err)
				return goja.Undefined()
			}

			mu.Lock()
			dslByName[dsl.Name] = dsl
			mu.Unlock()
			collection.Add(dsl.Name, body)
			return goja.Undefined()
		})
	}

	if _, err := vm.RunString(string(source)); err != nil {
		if isReferenceError(err) {
			return nil, types.WrapError(types.ErrUnknownSymbol, "evaluating plug-in file "+modulePath, err)
		}
		return nil, types.WrapError(types.ErrParse, "evaluating plug-in file "+modulePath, err)
	}
	if bindErr != nil {
		return nil, bindErr
	}

	m := project.NewModule(modulePath)
	var foldErr error
	collection.Each(func(name string, body types.RuleBody) {
		if foldErr != nil {
			return
		}
		dsl := dslByName[name]
		rule, err := project.NewRule(dsl.Name, dsl.Srcs, dsl.Deps, dsl.SrcFilter, body)
		if err != nil {
			foldErr = err
			return
		}
		rule.When = dsl.When

		included, err := rule.Included(l.props)
		if err != nil {
			foldErr = err
			return
		}
		if !included {
			l.logger.Debugf("rule %s excluded by when-expression", dsl.Name)
			return
		}

		if err := m.AddRule(rule); err != nil {
			foldErr = err
		}
	})
	if foldErr != nil {
		return nil, foldErr
	}
	return m, nil
}

// isReferenceError reports whether err is a goja ReferenceError — the
// shape goja.RunString raises when a script calls a name that was never
// bound into the VM's global scope, i.e. a reference to an unregistered
// rule-type tag. That case is an unknown-symbol lookup failure (spec
// §4.3/§6), distinct from a genuine syntax error, so Resolve must not
// let it fall through to the generic ErrParse case below.
func isReferenceError(err error) bool {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if obj, ok := exc.Value().(*goja.Object); ok {
			if name := obj.Get("name"); name != nil && name.String() == "ReferenceError" {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), "ReferenceError")
}
