// Package fanout holds the subscriber set shared by the broadcast channel implementations.
package fanout

import (
	"context"
	"sync"

	"github.com/tacgrid/reactions/pkg/streaming"
)

type entry struct {
	id int
	fn func(context.Context, streaming.Envelope)
}

// Subscribers delivers envelopes to handlers in subscription order.
type Subscribers struct {
	mu      sync.RWMutex
	next    int
	entries []entry
}

// Add registers fn and returns a function that removes it again.
func (s *Subscribers) Add(fn func(context.Context, streaming.Envelope)) (cancel func()) {
	s.mu.Lock()
	s.next++
	id := s.next
	s.entries = append(s.entries, entry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, e := range s.entries {
				if e.id == id {
					s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
					return
				}
			}
		})
	}
}

// Deliver calls every current handler with env. Handlers run outside the lock
// so they may subscribe or cancel.
func (s *Subscribers) Deliver(ctx context.Context, env streaming.Envelope) {
	s.mu.RLock()
	snapshot := make([]entry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.RUnlock()

	for _, e := range snapshot {
		e.fn(ctx, env)
	}
}

// Len returns the number of subscribed handlers.
func (s *Subscribers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every handler.
func (s *Subscribers) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}
