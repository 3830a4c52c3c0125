// Package project implements the rule/module/project data model (spec
// §3): Rule, Module, Project, the reference-syntax helpers that classify
// and validate rule names (component C2), and the cache-key computation
// rules must expose.
package project

import (
	"strings"

	"github.com/anvil-build/anvil/types"
)

// IsRulePath reports whether value is a rule reference rather than a
// file/glob: it is iff it contains a ':', per spec §3's reference syntax.
func IsRulePath(value string) bool {
	return value != "" && strings.Contains(value, ":")
}

// ValidateNames checks each value is non-empty, has no leading/trailing
// whitespace, and — if requireRulePath is set — is a rule reference.
func ValidateNames(values []string, requireRulePath bool) error {
	for _, v := range values {
		if v == "" {
			return types.NewError(types.ErrBadName, "name must be a non-empty string")
		}
		if strings.TrimSpace(v) != v {
			return types.NewError(types.ErrBadName, "name cannot have leading/trailing whitespace: "+quote(v))
		}
		if requireRulePath && !IsRulePath(v) {
			return types.NewError(types.ErrBadName, "dependency must be a rule reference (contain a ':'): "+quote(v))
		}
	}
	return nil
}

// ValidateRuleName checks a bare rule name: non-empty, no whitespace
// anywhere (matching the original's "\s" search, not just leading/trailing),
// and no leading ':' (that would make it a path, not a name).
func ValidateRuleName(name string) error {
	if name == "" {
		return types.NewError(types.ErrBadName, "invalid name: empty")
	}
	if strings.IndexFunc(name, isWhitespace) >= 0 {
		return types.NewError(types.ErrBadName, "name contains whitespace: "+quote(name))
	}
	if name[0] == ':' {
		return types.NewError(types.ErrBadName, "name cannot start with ':': "+quote(name))
	}
	return nil
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}

// SplitRulePath splits a resolved rule path "<module-path>:<name>" (or a
// bare local ":name", modulePath == "") into its module path and rule
// name parts. Mirrors original_source/build/project.py's resolve_rule,
// which rsplit(':', 1)s on the last colon so module paths may themselves
// contain colons.
func SplitRulePath(ref string) (modulePath, name string, ok bool) {
	i := strings.LastIndex(ref, ":")
	if i < 0 {
		return "", "", false
	}
	return ref[:i], ref[i+1:], true
}
