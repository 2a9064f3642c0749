// Package memory is an in-process broadcast channel with synchronous delivery.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/tacgrid/reactions/internal/broadcast/fanout"
	"github.com/tacgrid/reactions/pkg/streaming"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("memory broadcast closed")

// Channel delivers every published envelope to all subscribers before Publish returns.
type Channel struct {
	mu     sync.Mutex
	closed bool
	subs   fanout.Subscribers
}

// New creates an open in-process channel.
func New() *Channel {
	return &Channel{}
}

// Publish delivers env to every subscriber, the publisher's own included.
func (c *Channel) Publish(ctx context.Context, env streaming.Envelope) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	c.subs.Deliver(ctx, env)
	return nil
}

// Subscribe registers h for every subsequent envelope.
func (c *Channel) Subscribe(h func(context.Context, streaming.Envelope)) (cancel func()) {
	return c.subs.Add(h)
}

// Close stops delivery and drops all subscribers.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.subs.Clear()
	return nil
}
