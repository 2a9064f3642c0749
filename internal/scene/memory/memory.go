// Package memory is an in-process scene provider backed by maps.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/pkg/core"
)

// Store keeps the pieces, actors and users of one scene in memory.
type Store struct {
	order   []string // piece IDs in scene order
	pieces  map[string]core.Piece
	actorOf map[string]string // piece ID -> actor ID
	actors  map[string]*core.Actor
	users   []core.User
	mu      sync.RWMutex
}

var _ scene.Provider = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		pieces:  make(map[string]core.Piece),
		actorOf: make(map[string]string),
		actors:  make(map[string]*core.Actor),
	}
}

// AddPiece inserts or replaces a piece. Its actor, if any, is stored by actor ID
// so that pieces sharing an actor see the same reaction counter.
func (s *Store) AddPiece(p core.Piece) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pieces[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	if p.Actor != nil {
		a := cloneActor(p.Actor)
		s.actors[a.ID] = a
		s.actorOf[p.ID] = a.ID
	} else {
		delete(s.actorOf, p.ID)
	}
	p.Actor = nil
	s.pieces[p.ID] = clonePiece(p)
}

// RemovePiece deletes a piece. Its actor stays available to other pieces.
func (s *Store) RemovePiece(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pieces, id)
	delete(s.actorOf, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}

// AddUser inserts or replaces a user.
func (s *Store) AddUser(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
			return
		}
	}
	s.users = append(s.users, u)
}

// SetUserActive marks a user as connected or disconnected.
func (s *Store) SetUserActive(id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Active = active
			return nil
		}
	}
	return fmt.Errorf("unknown user %q", id)
}

// Pieces returns copies of all pieces in insertion order.
func (s *Store) Pieces(ctx context.Context) ([]core.Piece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Piece, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.assemble(id))
	}
	return out, nil
}

// Piece returns a copy of one piece.
func (s *Store) Piece(ctx context.Context, id string) (core.Piece, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.pieces[id]; !ok {
		return core.Piece{}, fmt.Errorf("%w: %s", scene.ErrPieceNotFound, id)
	}
	return s.assemble(id), nil
}

// Users returns a copy of the user list.
func (s *Store) Users(ctx context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.users), nil
}

// SetReactions stores the actor's reaction counter, clamped at zero.
func (s *Store) SetReactions(ctx context.Context, actorID string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[actorID]
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrActorNotFound, actorID)
	}
	a.Reactions = max(n, 0)
	return nil
}

// SetStatus adds or removes a status ID on a piece.
func (s *Store) SetStatus(ctx context.Context, pieceID, status string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pieces[pieceID]
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrPieceNotFound, pieceID)
	}
	has := p.HasStatus(status)
	switch {
	case active && !has:
		p.Statuses = append(slices.Clone(p.Statuses), status)
	case !active && has:
		p.Statuses = slices.DeleteFunc(slices.Clone(p.Statuses), func(st string) bool { return st == status })
	}
	s.pieces[pieceID] = p
	return nil
}

// MovePiece updates the top-left position of a piece.
func (s *Store) MovePiece(ctx context.Context, pieceID string, pos core.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pieces[pieceID]
	if !ok {
		return fmt.Errorf("%w: %s", scene.ErrPieceNotFound, pieceID)
	}
	p.Position = pos
	s.pieces[pieceID] = p
	return nil
}

// assemble must be called with the lock held.
func (s *Store) assemble(id string) core.Piece {
	p := clonePiece(s.pieces[id])
	if actorID, ok := s.actorOf[id]; ok {
		if a, ok := s.actors[actorID]; ok {
			p.Actor = cloneActor(a)
		}
	}
	return p
}

func clonePiece(p core.Piece) core.Piece {
	p.Owners = slices.Clone(p.Owners)
	p.Statuses = slices.Clone(p.Statuses)
	return p
}

func cloneActor(a *core.Actor) *core.Actor {
	c := *a
	if a.Structure != nil {
		v := *a.Structure
		c.Structure = &v
	}
	if a.HP != nil {
		v := *a.HP
		c.HP = &v
	}
	c.Items = slices.Clone(a.Items)
	return &c
}
