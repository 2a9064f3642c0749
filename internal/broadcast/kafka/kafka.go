// Package kafka carries broadcast envelopes over a kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tacgrid/reactions/internal/broadcast/fanout"
	"github.com/tacgrid/reactions/pkg/streaming"
)

const (
	headerAction = "action"
	readBackoff  = time.Second
	writeTimeout = 2 * time.Second
)

// Config holds kafka channel configuration.
type Config struct {
	Brokers     []string
	Topic       string
	GroupPrefix string
	UserID      string
}

// Channel publishes with a kafka writer and consumes with a reader in its own
// consumer group, so every session sees every message.
type Channel struct {
	writer *kafka.Writer
	reader *kafka.Reader
	subs   fanout.Subscribers
	logger *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// GroupID returns a consumer group unique to one session of userID.
func GroupID(prefix, userID string) string {
	if prefix == "" {
		prefix = "reactions"
	}
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("%s-%s-%s", prefix, userID, uuid.NewString())
}

// New creates the writer and reader and starts consuming.
func New(cfg Config, logger *slog.Logger) (*Channel, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka broadcast needs at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka broadcast needs a topic")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		writer: newWriter(cfg, logger),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     GroupID(cfg.GroupPrefix, cfg.UserID),
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
		}),
		logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.readLoop(ctx)
	return c, nil
}

// newWriter builds an async writer that makes one attempt per batch.
// Publish never waits on the broker; failed batches are only logged.
func newWriter(cfg Config, logger *slog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            1,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("Kafka publish failed", "topic", cfg.Topic, "messages", len(messages), "error", err)
			}
		},
	}
}

// Publish queues env keyed by the user it is addressed to. Only encoding
// errors are returned; delivery failures are logged by the writer.
func (c *Channel) Publish(ctx context.Context, env streaming.Envelope) error {
	msg, err := messageFor(env)
	if err != nil {
		return err
	}
	if err := c.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", env.Action, err)
	}
	return nil
}

// Subscribe registers h for every valid consumed envelope.
func (c *Channel) Subscribe(h func(context.Context, streaming.Envelope)) (cancel func()) {
	return c.subs.Add(h)
}

// Close stops consuming and flushes the writer.
func (c *Channel) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
		c.subs.Clear()
		if err := c.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka reader: %w", err))
		}
		if err := c.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
		}
	})
	return errors.Join(errs...)
}

func (c *Channel) readLoop(ctx context.Context) {
	defer close(c.done)
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("Kafka read error", "topic", c.reader.Config().Topic, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readBackoff):
			}
			continue
		}
		env, err := envelopeFrom(m)
		if err != nil {
			c.logger.Warn("Dropping invalid broadcast message", "key", string(m.Key), "error", err)
			continue
		}
		c.subs.Deliver(ctx, env)
	}
}

// messageFor encodes env, keyed by its addressee so one user's alerts stay ordered.
func messageFor(env streaming.Envelope) (kafka.Message, error) {
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s envelope: %w", env.Action, err)
	}
	var key []byte
	if env.Action == streaming.ActionOverwatchAlert {
		p, err := streaming.DecodeOverwatchAlert(env)
		if err != nil {
			return kafka.Message{}, err
		}
		key = []byte(p.UserID)
	}
	return kafka.Message{
		Key:     key,
		Value:   value,
		Headers: []kafka.Header{{Key: headerAction, Value: []byte(env.Action)}},
	}, nil
}

func envelopeFrom(m kafka.Message) (streaming.Envelope, error) {
	return streaming.Decode(m.Value)
}
