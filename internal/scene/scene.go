// Package scene defines the piece/actor data provider the reaction core reads
// and writes through. Implementations own the pieces; callers never cache them
// across calls.
package scene

import (
	"context"
	"errors"

	"github.com/tacgrid/reactions/pkg/core"
)

var (
	// ErrPieceNotFound is returned when no piece has the requested ID
	ErrPieceNotFound = errors.New("piece not found")
	// ErrActorNotFound is returned when no actor has the requested ID
	ErrActorNotFound = errors.New("actor not found")
)

// Provider is the piece/actor data store of a scene.
type Provider interface {
	// Pieces returns every piece in scene order.
	Pieces(ctx context.Context) ([]core.Piece, error)
	Piece(ctx context.Context, id string) (core.Piece, error)
	Users(ctx context.Context) ([]core.User, error)

	// SetReactions persists the actor's reaction counter.
	SetReactions(ctx context.Context, actorID string, n int) error
	// SetStatus adds or removes a status on a piece.
	SetStatus(ctx context.Context, pieceID, status string, active bool) error
	// MovePiece persists a new top-left position.
	MovePiece(ctx context.Context, pieceID string, pos core.Point) error
}

// ActiveUsers filters users down to those with a connected session.
func ActiveUsers(users []core.User) []core.User {
	active := make([]core.User, 0, len(users))
	for _, u := range users {
		if u.Active {
			active = append(active, u)
		}
	}
	return active
}

// FindUser returns the user with the given ID.
func FindUser(users []core.User, id string) (core.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return core.User{}, false
}
