// Package streaming defines the messages exchanged between sessions over the broadcast channel.
package streaming

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action constants matching the broadcast protocol.
const (
	ActionOverwatchAlert = "overwatchAlert"
)

// Envelope wraps all messages sent over the broadcast channel.
type Envelope struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sentAt"`
}

// OverwatchAlertPayload asks one user's session to render an overwatch alert.
type OverwatchAlertPayload struct {
	ReactorIDs []string `json:"reactorIds"`
	TargetID   string   `json:"targetId"`
	UserID     string   `json:"userId"`
}

// NewEnvelope marshals payload into a new envelope with a fresh ID.
func NewEnvelope(action string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", action, err)
	}
	return Envelope{
		ID:      uuid.NewString(),
		Action:  action,
		Payload: data,
		SentAt:  time.Now().UTC(),
	}, nil
}

// DecodeOverwatchAlert extracts the alert payload of an overwatchAlert envelope.
func DecodeOverwatchAlert(env Envelope) (OverwatchAlertPayload, error) {
	if env.Action != ActionOverwatchAlert {
		return OverwatchAlertPayload{}, fmt.Errorf("unexpected action %q", env.Action)
	}
	var p OverwatchAlertPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return OverwatchAlertPayload{}, fmt.Errorf("invalid overwatchAlert payload: %w", err)
	}
	return p, nil
}
