// Package gormstore is a scene provider persisted through GORM (SQLite or Postgres).
// It also keeps the overwatch and engagement history of the scene.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/tacgrid/reactions/internal/model"
	"github.com/tacgrid/reactions/internal/model/convert"
	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/internal/threat"
	"github.com/tacgrid/reactions/pkg/core"
)

// Store reads and writes scene state through GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ scene.Provider = (*Store)(nil)

// New creates a store over an already migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Import upserts users and pieces, keeping the given piece order.
func (s *Store) Import(ctx context.Context, users []core.User, pieces []core.Piece) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			row := convert.CoreToUser(u)
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save user %s: %w", u.ID, err)
			}
		}
		for i, p := range pieces {
			if p.Actor != nil {
				actor := convert.CoreToActor(*p.Actor)
				if err := tx.Save(&actor).Error; err != nil {
					return fmt.Errorf("failed to save actor %s: %w", p.Actor.ID, err)
				}
			}
			row := convert.CoreToPiece(p, i)
			if err := tx.Omit("Actor").Save(&row).Error; err != nil {
				return fmt.Errorf("failed to save piece %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// Pieces returns all pieces in scene order with their actors.
func (s *Store) Pieces(ctx context.Context) ([]core.Piece, error) {
	var rows []model.Piece
	err := s.db.WithContext(ctx).Preload("Actor").Order("sort_order, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pieces: %w", err)
	}
	out := make([]core.Piece, len(rows))
	for i, row := range rows {
		out[i] = convert.PieceToCore(row)
	}
	return out, nil
}

// Piece returns one piece with its actor.
func (s *Store) Piece(ctx context.Context, id string) (core.Piece, error) {
	row, err := s.loadPiece(s.db.WithContext(ctx).Preload("Actor"), id)
	if err != nil {
		return core.Piece{}, err
	}
	return convert.PieceToCore(row), nil
}

// Users returns every known user.
func (s *Store) Users(ctx context.Context) ([]core.User, error) {
	var rows []model.User
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	out := make([]core.User, len(rows))
	for i, row := range rows {
		out[i] = convert.UserToCore(row)
	}
	return out, nil
}

// SetUserActive marks a user as connected or disconnected.
func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("unknown user %q", id)
	}
	return nil
}

// SetReactions stores the actor's reaction counter, clamped at zero.
func (s *Store) SetReactions(ctx context.Context, actorID string, n int) error {
	res := s.db.WithContext(ctx).Model(&model.Actor{}).Where("id = ?", actorID).Update("reactions", max(n, 0))
	if res.Error != nil {
		return fmt.Errorf("failed to update reactions: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", scene.ErrActorNotFound, actorID)
	}
	return nil
}

// SetStatus adds or removes a status ID on a piece.
func (s *Store) SetStatus(ctx context.Context, pieceID, status string, active bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.loadPiece(tx, pieceID)
		if err != nil {
			return err
		}
		p := convert.PieceToCore(row)
		has := p.HasStatus(status)
		switch {
		case active && !has:
			p.Statuses = append(p.Statuses, status)
		case !active && has:
			p.Statuses = slices.DeleteFunc(p.Statuses, func(st string) bool { return st == status })
		default:
			return nil
		}
		statuses := convert.CoreToPiece(p, row.SortOrder).Statuses
		return tx.Model(&model.Piece{}).Where("id = ?", pieceID).Update("statuses", statuses).Error
	})
}

// MovePiece updates the top-left position of a piece.
func (s *Store) MovePiece(ctx context.Context, pieceID string, pos core.Point) error {
	res := s.db.WithContext(ctx).Model(&model.Piece{}).Where("id = ?", pieceID).
		Updates(map[string]any{"x": pos.X, "y": pos.Y})
	if res.Error != nil {
		return fmt.Errorf("failed to move piece: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", scene.ErrPieceNotFound, pieceID)
	}
	return nil
}

// RemovePiece soft-deletes a piece.
func (s *Store) RemovePiece(ctx context.Context, pieceID string) error {
	return s.db.WithContext(ctx).Delete(&model.Piece{}, "id = ?", pieceID).Error
}

// RecordOverwatch appends the triggered reactors of a move to the history.
func (s *Store) RecordOverwatch(ctx context.Context, e core.TriggerEvent, triggered []core.TriggeredReactor) error {
	if len(triggered) == 0 {
		return nil
	}
	at := s.now()
	rows := make([]model.OverwatchTrigger, len(triggered))
	for i, r := range triggered {
		rows[i] = convert.TriggerToOverwatch(e, r, at)
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// RecordEngagement appends the engagement transitions to the history.
func (s *Store) RecordEngagement(ctx context.Context, diff threat.EngagementDiff) error {
	if diff.Empty() {
		return nil
	}
	at := s.now()
	rows := make([]model.EngagementChange, 0, len(diff.Entered)+len(diff.Left))
	for _, id := range diff.Entered {
		rows = append(rows, model.EngagementChange{Time: at, PieceID: id, Engaged: true})
	}
	for _, id := range diff.Left {
		rows = append(rows, model.EngagementChange{Time: at, PieceID: id, Engaged: false})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// OverwatchHistory returns recorded triggers for a reactor, oldest first.
func (s *Store) OverwatchHistory(ctx context.Context, reactorID string) ([]model.OverwatchTrigger, error) {
	var rows []model.OverwatchTrigger
	err := s.db.WithContext(ctx).Where("reactor_id = ?", reactorID).Order("id").Find(&rows).Error
	return rows, err
}

func (s *Store) loadPiece(db *gorm.DB, id string) (model.Piece, error) {
	var row model.Piece
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Piece{}, fmt.Errorf("%w: %s", scene.ErrPieceNotFound, id)
	}
	if err != nil {
		return model.Piece{}, fmt.Errorf("failed to load piece: %w", err)
	}
	return row, nil
}
