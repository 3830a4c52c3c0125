package rules

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

// ExprGateType is the registry tag for ExprGateRule.
const ExprGateType = "expr_gate"

// ExprGateConfiguration holds an ExprGateRule's attributes. Expr is
// compiled once in Init and must evaluate to a boolean.
type ExprGateConfiguration struct {
	Expr string `mapstructure:"expr"`
}

// ExprGateRule passes its srcs through unchanged when Expr evaluates
// true, and fails the rule otherwise, letting a build conditionally cut
// off a branch of the graph without a scripting runtime. Grounded on
// components/transform/expr_filter_node.go's compile-once/evaluate-per-
// message shape, retargeted from a message filter onto a rule gate: the
// expression sees srcs instead of a message body.
type ExprGateRule struct {
	cfg     ExprGateConfiguration
	program *vm.Program
}

func (r *ExprGateRule) Type() string { return ExprGateType }

func (r *ExprGateRule) New() types.RuleBody { return &ExprGateRule{} }

func (r *ExprGateRule) Init(attrs types.Properties) error {
	var cfg ExprGateConfiguration
	if err := project.DecodeAttrs(attrs, &cfg); err != nil {
		return err
	}
	if cfg.Expr == "" {
		return types.NewError(types.ErrParse, "expr_gate rule requires an expr attribute")
	}
	program, err := expr.Compile(cfg.Expr, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return types.WrapError(types.ErrParse, "compiling gate expression", err)
	}
	r.cfg = cfg
	r.program = program
	return nil
}

func (r *ExprGateRule) Begin(ctx types.RuleContext) {
	srcs := ctx.SrcPaths()
	out, err := vm.Run(r.program, map[string]any{
		"srcs":      srcs,
		"src_count": len(srcs),
	})
	if err != nil {
		ctx.Fail(types.WrapError(types.ErrTask, "evaluating gate expression", err))
		return
	}
	result, ok := out.(bool)
	if !ok {
		ctx.Fail(types.NewError(types.ErrParse, "gate expression did not evaluate to a boolean"))
		return
	}
	if !result {
		ctx.Fail(types.NewError(types.ErrTask, "gate closed: "+r.cfg.Expr))
		return
	}
	ctx.AppendOutputPaths(srcs...)
	ctx.Succeed()
}
