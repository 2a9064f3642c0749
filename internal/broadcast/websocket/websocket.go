// Package websocket carries broadcast envelopes through a websocket relay.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/tacgrid/reactions/internal/broadcast/fanout"
	"github.com/tacgrid/reactions/pkg/streaming"
)

// ErrSendBufferFull is returned by Publish when the outbound queue is saturated.
var ErrSendBufferFull = errors.New("websocket send buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("websocket broadcast closed")

// Config holds websocket client configuration.
type Config struct {
	URL          string // relay base URL, the topic is appended as a path segment
	Topic        string
	SendBuffer   int
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Client publishes envelopes to a relay and delivers the relay's traffic to subscribers.
type Client struct {
	conn   *connection
	subs   fanout.Subscribers
	logger *slog.Logger
}

// New creates an unconnected client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{logger: logger}
	c.conn = newConnection(cfg.SendBuffer, cfg.ReconnectMin, cfg.ReconnectMax, c.receive, logger)
	c.conn.wsURL = TopicURL(cfg.URL, cfg.Topic)
	return c
}

// Dial connects to the relay.
func (c *Client) Dial() error {
	return c.conn.dial(c.conn.wsURL)
}

// TopicURL joins the relay base URL and the topic.
func TopicURL(base, topic string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(topic)
}

// Publish queues env for the relay. Delivery is fire-and-forget.
func (c *Client) Publish(_ context.Context, env streaming.Envelope) error {
	c.conn.mu.Lock()
	closed := c.conn.closed
	c.conn.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", env.Action, err)
	}
	if !c.conn.send(data) {
		return ErrSendBufferFull
	}
	return nil
}

// Subscribe registers h for every valid inbound envelope.
func (c *Client) Subscribe(h func(context.Context, streaming.Envelope)) (cancel func()) {
	return c.subs.Add(h)
}

// Close disconnects from the relay.
func (c *Client) Close() error {
	c.subs.Clear()
	return c.conn.close()
}

func (c *Client) receive(data []byte) {
	env, err := streaming.Decode(data)
	if err != nil {
		c.logger.Warn("Dropping invalid broadcast message", "error", err)
		return
	}
	c.subs.Deliver(context.Background(), env)
}
