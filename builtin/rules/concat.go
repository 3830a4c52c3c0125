package rules

import (
	"io"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

// ConcatType is the tag ConcatRule registers under.
const ConcatType = "concat"

// ConcatConfiguration is ConcatRule's type-specific Configuration (spec
// §3's "Additional type-specific options are carried by rule subtypes"),
// decoded via project.DecodeAttrs the same way every other rule subtype
// decodes its own options.
type ConcatConfiguration struct {
	// Out names the single output file, relative to the rule's own
	// output directory. Defaults to the rule's own name if empty.
	Out string `mapstructure:"out"`
}

// ConcatRule concatenates every resolved src, in src order, into a
// single output file.
type ConcatRule struct {
	cfg ConcatConfiguration
}

func (r *ConcatRule) Type() string { return ConcatType }

func (r *ConcatRule) New() types.RuleBody { return &ConcatRule{} }

func (r *ConcatRule) Init(attrs types.Properties) error {
	return project.DecodeAttrs(attrs, &r.cfg)
}

type concatTask struct {
	srcs []string
	dst  string
}

func (t concatTask) Run() (any, error) {
	if err := os.MkdirAll(filepath.Dir(t.dst), 0o755); err != nil {
		return nil, types.WrapError(types.ErrIO, "creating output directory for "+t.dst, err)
	}
	out, err := os.Create(t.dst)
	if err != nil {
		return nil, types.WrapError(types.ErrIO, "creating "+t.dst, err)
	}
	defer out.Close()
	for _, src := range t.srcs {
		if err := appendFile(out, src); err != nil {
			return nil, err
		}
	}
	return t.dst, nil
}

func appendFile(out *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return types.WrapError(types.ErrIO, "opening "+src, err)
	}
	defer in.Close()
	if _, err := io.Copy(out, in); err != nil {
		return types.WrapError(types.ErrIO, "appending "+src, err)
	}
	return nil
}

func (r *ConcatRule) Begin(ctx types.RuleContext) {
	name := r.cfg.Out
	var suffix string
	if name != "" {
		suffix = filepath.Ext(name)
		name = name[:len(name)-len(suffix)]
	}
	dst := ctx.OutPath(name, suffix)
	ctx.AppendOutputPaths(dst)

	f := ctx.RunTaskAsync(concatTask{srcs: ctx.SrcPaths(), dst: dst})
	ctx.Chain(f)
}
