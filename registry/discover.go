package registry

import (
	"fmt"
	goplugin "plugin"
	"path/filepath"

	"github.com/anvil-build/anvil/types"
)

// Discover scans dir for compiled plug-in shared objects (*.so) and
// registers each one's rule-type constructor, per spec §4.2(ii)'s
// "filesystem discovery that scans a given directory for plug-in files
// and loads each". A duplicate tag across files is reported as an error
// and discovery stops; already-registered tags are left intact.
//
// Each *.so must export:
//
//	var RuleTypeTag string
//	func NewRule() types.RuleBody
//
// This is the one place the core reaches for the standard library's
// plugin package rather than a third-party dependency — see DESIGN.md
// for why no pack example offers a better-fitting alternative.
func (r *RuleRegistry) Discover(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.so"))
	if err != nil {
		return types.WrapError(types.ErrIO, "globbing plug-in directory "+dir, err)
	}
	for _, path := range matches {
		if err := r.discoverOne(path); err != nil {
			return err
		}
	}
	return nil
}

func (r *RuleRegistry) discoverOne(path string) error {
	p, err := goplugin.Open(path)
	if err != nil {
		return types.WrapError(types.ErrIO, "opening plug-in "+path, err)
	}

	tagSym, err := p.Lookup("RuleTypeTag")
	if err != nil {
		return types.WrapError(types.ErrUnknownSymbol, "plug-in "+path+" does not export RuleTypeTag", err)
	}
	tagPtr, ok := tagSym.(*string)
	if !ok {
		return types.NewError(types.ErrUnknownSymbol, "plug-in "+path+"'s RuleTypeTag is not a string")
	}

	ctorSym, err := p.Lookup("NewRule")
	if err != nil {
		return types.WrapError(types.ErrUnknownSymbol, "plug-in "+path+" does not export NewRule", err)
	}
	ctor, ok := ctorSym.(func() types.RuleBody)
	if !ok {
		return types.NewError(types.ErrUnknownSymbol, "plug-in "+path+"'s NewRule has the wrong signature")
	}

	if err := r.Register(*tagPtr, ctor); err != nil {
		return fmt.Errorf("discovering %s: %w", path, err)
	}
	return nil
}
