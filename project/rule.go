package project

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"

	"github.com/anvil-build/anvil/types"
)

// FrameworkVersion is folded into every cache key (spec §9 Design Notes,
// Open Question (iv)): bump it by hand when an internal change should
// force every rule's artifacts to be treated as stale.
const FrameworkVersion = "anvil/1"

// Rule is a declarative work-unit definition (spec §3). Construct one with
// NewRule; it belongs to exactly one Module once AddRule binds it
// (SetParentModule is write-once and returns a ProgrammingError on a
// second call, mirroring the original's set_parent_module raising
// ValueError).
type Rule struct {
	Name      string
	Type      string
	Srcs      []string
	Deps      []string
	SrcFilter string
	// When, if non-empty, is an expr-lang boolean expression evaluated
	// by Included. The plug-in loader calls Included against its own
	// Properties while loading a module and leaves a rule whose When is
	// false out of the module, as if it had never been declared (§3
	// [DOMAIN] supplement). graph.Build does not evaluate When: a rule
	// added to a Module directly is part of the graph whatever its When.
	When string
	Body types.RuleBody

	parent *Module
	path   string
}

// NewRule validates name/srcs/deps and returns an unbound Rule (no parent
// module yet). srcFilter may be empty.
func NewRule(name string, srcs, deps []string, srcFilter string, body types.RuleBody) (*Rule, error) {
	if err := ValidateRuleName(name); err != nil {
		return nil, err
	}
	if err := ValidateNames(srcs, false); err != nil {
		return nil, err
	}
	if err := ValidateNames(deps, true); err != nil {
		return nil, err
	}
	r := &Rule{
		Name:      name,
		Srcs:      append([]string(nil), srcs...),
		Deps:      append([]string(nil), deps...),
		SrcFilter: srcFilter,
		Body:      body,
		path:      ":" + name,
	}
	if body != nil {
		r.Type = body.Type()
	}
	return r, nil
}

// SetParentModule binds r to module, computing its full path. Write-once:
// a second call is a programming error.
func (r *Rule) SetParentModule(m *Module) error {
	if r.parent != nil {
		return types.NewError(types.ErrProgramming, fmt.Sprintf("rule %q already has a parent module", r.Name))
	}
	r.parent = m
	r.path = m.Path + ":" + r.Name
	return nil
}

// Path returns the rule's full path, ":name" before it has a parent and
// "<module-path>:name" after.
func (r *Rule) Path() string { return r.path }

// ParentModule returns the owning Module, or nil before binding.
func (r *Rule) ParentModule() *Module { return r.parent }

// AllReferences returns every entry from Srcs and Deps that is itself a
// rule reference (contains ':'), in srcs-then-deps order — the edges the
// dependency graph (package graph) draws from this rule.
func (r *Rule) AllReferences() []string {
	var refs []string
	for _, s := range r.Srcs {
		if IsRulePath(s) {
			refs = append(refs, s)
		}
	}
	refs = append(refs, r.Deps...)
	return refs
}

// Included reports whether r's When expression (if any) evaluates true
// against props. A Rule with no When is always included.
func (r *Rule) Included(props types.Properties) (bool, error) {
	if r.When == "" {
		return true, nil
	}
	env := map[string]any(props.Copy())
	out, err := expr.Eval(r.When, env)
	if err != nil {
		return false, types.WrapError(types.ErrParse, "evaluating rule when-expression for "+r.path, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, types.NewError(types.ErrParse, "rule when-expression for "+r.path+" did not evaluate to a bool")
	}
	return b, nil
}

// DecodeAttrs decodes a generic attribute map into dst (typically a
// pointer to the RuleBody implementation's own options struct), the
// concrete mechanism behind spec §3's "Additional type-specific options
// are carried by rule subtypes."
func DecodeAttrs(attrs types.Properties, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return types.WrapError(types.ErrParse, "building attribute decoder", err)
	}
	if err := dec.Decode(map[string]any(attrs)); err != nil {
		return types.WrapError(types.ErrParse, "decoding rule attributes", err)
	}
	return nil
}

// cacheKeyInput is the exported-field snapshot fatih/structs walks to
// build the cache key's canonical map. Unexported fields (parent, path)
// are deliberately absent: the key must be a function of rule-type
// identity and attribute values only, not of where the rule lives.
type cacheKeyInput struct {
	Type      string
	Name      string
	Srcs      []string
	Deps      []string
	SrcFilter string
	When      string
	Version   string
}

// CacheKey computes a stable fingerprint per spec §3/§9: canonically
// JSON-encode (sorted keys, which encoding/json already guarantees for
// map[string]any) the rule's exported attributes plus FrameworkVersion,
// then SHA-256 the result to a hex string. This replaces the original's
// pickle.dumps + md5 with an encoding the Go ecosystem can reproduce
// byte-for-byte without depending on a language-specific object format
// (§9 Design Notes: "do not rely on a host-language object-pickling
// primitive — specify the encoding").
func (r *Rule) CacheKey() (string, error) {
	input := cacheKeyInput{
		Type:      r.Type,
		Name:      r.Name,
		Srcs:      r.Srcs,
		Deps:      r.Deps,
		SrcFilter: r.SrcFilter,
		When:      r.When,
		Version:   FrameworkVersion,
	}
	m := structs.Map(input)
	encoded, err := json.Marshal(m)
	if err != nil {
		return "", types.WrapError(types.ErrProgramming, "marshalling cache key input", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
