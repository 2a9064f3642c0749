// Package broadcast connects the sessions of one scene.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tacgrid/reactions/internal/broadcast/kafka"
	"github.com/tacgrid/reactions/internal/broadcast/memory"
	"github.com/tacgrid/reactions/internal/broadcast/websocket"
	"github.com/tacgrid/reactions/internal/config"
	"github.com/tacgrid/reactions/pkg/streaming"
)

// Handler receives inbound envelopes.
type Handler = func(ctx context.Context, env streaming.Envelope)

// Channel is a fire-and-forget message bus shared by every session on a topic.
type Channel interface {
	Publish(ctx context.Context, env streaming.Envelope) error
	Subscribe(h Handler) (cancel func())
	Close() error
}

var (
	_ Channel = (*memory.Channel)(nil)
	_ Channel = (*websocket.Client)(nil)
	_ Channel = (*kafka.Channel)(nil)
)

// New creates and connects the channel selected by cfg.Type.
func New(cfg config.BroadcastConfig, userID string, logger *slog.Logger) (Channel, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), nil
	case "websocket":
		c := websocket.New(websocket.Config{
			URL:          cfg.WebSocket.URL,
			Topic:        cfg.Topic,
			SendBuffer:   cfg.WebSocket.SendBuffer,
			ReconnectMin: cfg.WebSocket.ReconnectMin,
			ReconnectMax: cfg.WebSocket.ReconnectMax,
		}, logger)
		if err := c.Dial(); err != nil {
			return nil, err
		}
		return c, nil
	case "kafka":
		return kafka.New(kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Topic,
			GroupPrefix: cfg.Kafka.GroupPrefix,
			UserID:      userID,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown broadcast type: %s", cfg.Type)
	}
}
