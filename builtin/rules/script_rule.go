package rules

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

// ScriptType is the registry tag for ScriptRule.
const ScriptType = "script"

const scriptFuncTemplate = "function run(srcs) { %s }\nrun;"

// ScriptConfiguration holds a ScriptRule's attributes.
type ScriptConfiguration struct {
	Script string `mapstructure:"script"`
}

// ScriptRule runs a small JavaScript function over a rule's srcs via
// goja, letting a build express ad hoc output selection or transformation
// without a new compiled rule type. The function returns either a
// boolean (pass srcs through unchanged or fail) or an array of output
// path strings. Grounded on components/transform/js_filter_node.go's
// compile-once, sync.Pool-of-runtimes-per-call shape.
type ScriptRule struct {
	program *goja.Program
	pool    *sync.Pool
}

func (r *ScriptRule) Type() string { return ScriptType }

func (r *ScriptRule) New() types.RuleBody { return &ScriptRule{} }

func (r *ScriptRule) Init(attrs types.Properties) error {
	var cfg ScriptConfiguration
	if err := project.DecodeAttrs(attrs, &cfg); err != nil {
		return err
	}
	if cfg.Script == "" {
		return types.NewError(types.ErrParse, "script rule requires a script attribute")
	}

	source := fmt.Sprintf(scriptFuncTemplate, cfg.Script)
	program, err := goja.Compile("script.js", source, true)
	if err != nil {
		return types.WrapError(types.ErrParse, "compiling script", err)
	}

	r.program = program
	r.pool = &sync.Pool{
		New: func() any {
			vm := goja.New()
			if _, err := vm.RunProgram(program); err != nil {
				panic(fmt.Sprintf("script rule: initializing vm: %v", err))
			}
			return vm
		},
	}
	return nil
}

func (r *ScriptRule) Begin(ctx types.RuleContext) {
	vm := r.pool.Get().(*goja.Runtime)
	defer r.pool.Put(vm)

	fn, ok := goja.AssertFunction(vm.Get("run"))
	if !ok {
		ctx.Fail(types.NewError(types.ErrProgramming, "script rule: run is not a function"))
		return
	}

	res, err := fn(goja.Undefined(), vm.ToValue(ctx.SrcPaths()))
	if err != nil {
		ctx.Fail(types.WrapError(types.ErrTask, "running script", err))
		return
	}

	switch v := res.Export().(type) {
	case bool:
		if v {
			ctx.AppendOutputPaths(ctx.SrcPaths()...)
			ctx.Succeed()
		} else {
			ctx.Fail(types.NewError(types.ErrTask, "script returned false"))
		}
	case []any:
		outputs := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				ctx.Fail(types.NewError(types.ErrParse, "script rule: output path must be a string"))
				return
			}
			outputs = append(outputs, s)
		}
		ctx.AppendOutputPaths(outputs...)
		ctx.Succeed()
	default:
		ctx.Fail(types.NewError(types.ErrParse, "script must return a boolean or an array of output paths"))
	}
}
