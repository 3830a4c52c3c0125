package aspect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anvil-build/anvil/types"
)

func TestDebugCallbacksFireForEachEvent(t *testing.T) {
	cb := NewDebugCallbacks(types.NopLogger())

	assert.NotPanics(t, func() {
		cb.RuleBegin(":a")
		cb.RuleSucceeded(":a", []string{"out.txt"})
		cb.RuleFailed(":a", errors.New("boom"))
	})
}
