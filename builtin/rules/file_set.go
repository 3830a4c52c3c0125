// Package rules holds a handful of concrete RuleBody implementations —
// enough to exercise the driver end to end: file_set, copy and concat
// for plain file plumbing, expr_gate and script for conditional and
// scripted rule bodies. spec.md §1 explicitly puts "concrete rule
// implementations" out of scope beyond a reference minimum, so this
// package stays deliberately small rather than growing into a
// general-purpose build-rule library.
package rules

import (
	"github.com/anvil-build/anvil/types"
)

// FileSetType is the tag FileSetRule registers under.
const FileSetType = "file_set"

// FileSetRule is the simplest possible rule body: it has no
// configuration and no task of its own, it just re-exposes its resolved
// srcs as outputs. Grounded on original_source/build/rules/core_rules.py's
// GenericRule, which does the same pass-through for a bare file group.
type FileSetRule struct{}

func (r *FileSetRule) Type() string { return FileSetType }

func (r *FileSetRule) New() types.RuleBody { return &FileSetRule{} }

func (r *FileSetRule) Init(types.Properties) error { return nil }

func (r *FileSetRule) Begin(ctx types.RuleContext) {
	ctx.AppendOutputPaths(ctx.SrcPaths()...)
	ctx.Succeed()
}
