// Package aspect provides reusable types.Callbacks builders — composable
// cross-cutting behavior around rule execution, the same idea the
// teacher's Before/After aspect hooks served, rebuilt on top of
// engine.BuildContext's plain callback struct instead of a chain-level
// aspect chain.
package aspect

import (
	"github.com/anvil-build/anvil/types"
)

// NewDebugCallbacks returns a types.Callbacks that logs every rule
// lifecycle event at debug level: begin, success with outputs, and
// failure with the error. Grounded on the teacher's ChainDebug/NodeDebug
// aspects (before/after logging around node execution), collapsed here
// into the three rule-level hook points engine.BuildContext exposes
// (OnBuildFinished is left unset).
func NewDebugCallbacks(logger types.Logger) types.Callbacks {
	return types.Callbacks{
		OnRuleBegin: func(rulePath string) {
			logger.Debugf("rule begin: %s", rulePath)
		},
		OnRuleSucceeded: func(rulePath string, outputs []string) {
			logger.Debugf("rule succeeded: %s -> %v", rulePath, outputs)
		},
		OnRuleFailed: func(rulePath string, err error) {
			logger.Debugf("rule failed: %s: %v", rulePath, err)
		},
	}
}
