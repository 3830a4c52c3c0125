package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicForJoinsPrefixAndEvent(t *testing.T) {
	assert.Equal(t, "anvil/build/rule.begin", topicFor("anvil/build", "rule.begin"))
}

func TestEncodeEnvelopeRoundTrips(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	body, err := encodeEnvelope(":a", []string{"out.txt"}, now)
	require.NoError(t, err)

	var decoded envelope
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, ":a", decoded.RulePath)
	assert.Equal(t, now.UnixMilli(), decoded.Time)
	assert.Equal(t, []any{"out.txt"}, decoded.Payload)
}

func TestEncodeEnvelopeOmitsEmptyRulePath(t *testing.T) {
	body, err := encodeEnvelope("", true, time.UnixMilli(0))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "rule_path")
}
