package kafka

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacgrid/reactions/pkg/streaming"
)

func TestGroupID_UniquePerSession(t *testing.T) {
	a := GroupID("reactions", "alice")
	b := GroupID("reactions", "alice")

	assert.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "reactions-alice-"))
	_, err := uuid.Parse(strings.TrimPrefix(a, "reactions-alice-"))
	assert.NoError(t, err)

	assert.True(t, strings.HasPrefix(GroupID("", ""), "reactions-anonymous-"))
}

func TestMessageFor_KeyedByAddressee(t *testing.T) {
	env, err := streaming.NewEnvelope(streaming.ActionOverwatchAlert, streaming.OverwatchAlertPayload{
		ReactorIDs: []string{"r1"},
		TargetID:   "m",
		UserID:     "bob",
	})
	require.NoError(t, err)

	msg, err := messageFor(env)
	require.NoError(t, err)
	assert.Equal(t, "bob", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, streaming.ActionOverwatchAlert, string(msg.Headers[0].Value))

	back, err := envelopeFrom(msg)
	require.NoError(t, err)
	assert.Equal(t, env.ID, back.ID)
}

func TestMessageFor_UnkeyedAction(t *testing.T) {
	env, err := streaming.NewEnvelope("ping", map[string]string{})
	require.NoError(t, err)

	msg, err := messageFor(env)
	require.NoError(t, err)
	assert.Nil(t, msg.Key)
}

func TestMessageFor_BadAlertPayload(t *testing.T) {
	_, err := messageFor(streaming.Envelope{Action: streaming.ActionOverwatchAlert, Payload: json.RawMessage(`"x"`)})
	assert.Error(t, err)
}

func TestEnvelopeFrom_Invalid(t *testing.T) {
	_, err := envelopeFrom(kafka.Message{Value: []byte(`{"id":"nope"}`)})
	assert.ErrorIs(t, err, streaming.ErrInvalidEnvelope)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Topic: "t"}, nil)
	assert.Error(t, err)
	_, err = New(Config{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)
}

func TestNewWriter_FireAndForget(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	w := newWriter(Config{Brokers: []string{"localhost:9092"}, Topic: "scene"}, logger)

	assert.True(t, w.Async)
	assert.Equal(t, 1, w.MaxAttempts)
	assert.Equal(t, "scene", w.Topic)
	require.NotNil(t, w.Completion)

	w.Completion([]kafka.Message{{}}, nil)
	assert.Empty(t, buf.String())

	w.Completion([]kafka.Message{{}, {}}, errors.New("broker down"))
	assert.Contains(t, buf.String(), "Kafka publish failed")
	assert.Contains(t, buf.String(), "messages=2")
	assert.Contains(t, buf.String(), "broker down")
}
