package streaming

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(ActionOverwatchAlert, OverwatchAlertPayload{
		ReactorIDs: []string{"r1", "r2"},
		TargetID:   "m",
		UserID:     "bob",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)
	assert.False(t, env.SentAt.IsZero())
	assert.JSONEq(t, `{"reactorIds":["r1","r2"],"targetId":"m","userId":"bob"}`, string(env.Payload))

	data, err := json.Marshal(env)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "overwatchAlert", raw["action"])
}

func TestDecodeOverwatchAlert(t *testing.T) {
	env, err := NewEnvelope(ActionOverwatchAlert, OverwatchAlertPayload{ReactorIDs: []string{"r"}, TargetID: "m", UserID: "u"})
	require.NoError(t, err)

	p, err := DecodeOverwatchAlert(env)
	require.NoError(t, err)
	assert.Equal(t, []string{"r"}, p.ReactorIDs)

	_, err = DecodeOverwatchAlert(Envelope{Action: "other"})
	assert.Error(t, err)

	_, err = DecodeOverwatchAlert(Envelope{Action: ActionOverwatchAlert, Payload: json.RawMessage(`[`)})
	assert.Error(t, err)
}

func TestNewEnvelope_UnmarshalablePayload(t *testing.T) {
	_, err := NewEnvelope(ActionOverwatchAlert, make(chan int))
	assert.Error(t, err)
}
