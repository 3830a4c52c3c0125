package rules

import (
	"io"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/types"
)

// CopyType is the tag CopyRule registers under.
const CopyType = "copy"

// copyTask copies one file; it is the unit RunTaskAsync submits to the
// executor, so it carries everything it needs by value (types.Task's
// contract) rather than reaching back into the rule or its context.
type copyTask struct {
	src, dst string
}

func (t copyTask) Run() (any, error) {
	if err := os.MkdirAll(filepath.Dir(t.dst), 0o755); err != nil {
		return nil, types.WrapError(types.ErrIO, "creating output directory for "+t.dst, err)
	}
	in, err := os.Open(t.src)
	if err != nil {
		return nil, types.WrapError(types.ErrIO, "opening "+t.src, err)
	}
	defer in.Close()
	out, err := os.Create(t.dst)
	if err != nil {
		return nil, types.WrapError(types.ErrIO, "creating "+t.dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return nil, types.WrapError(types.ErrIO, "copying "+t.src+" to "+t.dst, err)
	}
	return t.dst, nil
}

// CopyRule copies every resolved src to its OutPathForSrc location,
// one task per file, running them concurrently on the build's executor
// and completing once every copy has (spec §4.5/§4.7's RunTaskAsync +
// Chain combination).
type CopyRule struct{}

func (r *CopyRule) Type() string { return CopyType }

func (r *CopyRule) New() types.RuleBody { return &CopyRule{} }

func (r *CopyRule) Init(types.Properties) error { return nil }

func (r *CopyRule) Begin(ctx types.RuleContext) {
	srcs := ctx.SrcPaths()
	if len(srcs) == 0 {
		ctx.Succeed()
		return
	}

	futures := make([]types.Future, 0, len(srcs))
	for _, src := range srcs {
		dst := ctx.OutPathForSrc(src)
		ctx.AppendOutputPaths(dst)
		futures = append(futures, ctx.RunTaskAsync(copyTask{src: src, dst: dst}))
	}
	ctx.Chain(futures...)
}
