package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacgrid/reactions/internal/database"
	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/internal/model"
	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/internal/threat"
	"github.com/tacgrid/reactions/pkg/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "scene.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.DatabaseModels...))
	s := New(db)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	structure := 2
	err := s.Import(context.Background(),
		[]core.User{{ID: "alice", Active: true}, {ID: "gm", Active: true, GM: true}},
		[]core.Piece{
			{
				ID: "reactor", Width: 1, Height: 1, Owners: []string{"alice"},
				Disposition: core.DispositionFriendly,
				Actor: &core.Actor{
					ID: "mech-1", Type: core.ActorMech, Structure: &structure, Reactions: 1,
					Items: []core.Item{{ID: "gun", Type: core.ItemMechWeapon, Equipped: true,
						Ranges: []core.RangeEntry{{Type: "Threat", Val: "2"}}, ActiveProfile: -1}},
				},
			},
			{
				ID: "mover", Position: core.Point{X: 200, Y: 0}, Width: 2, Height: 2,
				Disposition: core.DispositionHostile,
				Shape:       grid.RingPolygon([]core.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 0, Y: 200}}),
			},
		})
	require.NoError(t, err)
}

func TestStore_ImportAndRead(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	pieces, err := s.Pieces(ctx)
	require.NoError(t, err)
	require.Len(t, pieces, 2)
	assert.Equal(t, "reactor", pieces[0].ID)
	require.NotNil(t, pieces[0].Actor)
	assert.Equal(t, 1, pieces[0].Actor.Reactions)
	assert.Equal(t, "2", pieces[0].Actor.Items[0].Ranges[0].Val)
	assert.Equal(t, []string{"alice"}, pieces[0].Owners)

	mover := pieces[1]
	assert.Nil(t, mover.Actor)
	assert.Equal(t, core.Point{X: 200, Y: 0}, mover.Position)
	assert.False(t, mover.Shape.IsEmpty())

	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestStore_PieceNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Piece(context.Background(), "ghost")
	assert.ErrorIs(t, err, scene.ErrPieceNotFound)
}

func TestStore_SetReactions(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetReactions(ctx, "mech-1", 0))
	p, err := s.Piece(ctx, "reactor")
	require.NoError(t, err)
	assert.Zero(t, p.Actor.Reactions)

	assert.ErrorIs(t, s.SetReactions(ctx, "nobody", 1), scene.ErrActorNotFound)
}

func TestStore_SetStatus(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetStatus(ctx, "mover", core.StatusEngaged, true))
	require.NoError(t, s.SetStatus(ctx, "mover", core.StatusEngaged, true))
	p, err := s.Piece(ctx, "mover")
	require.NoError(t, err)
	assert.Equal(t, []string{core.StatusEngaged}, p.Statuses)

	require.NoError(t, s.SetStatus(ctx, "mover", core.StatusEngaged, false))
	p, err = s.Piece(ctx, "mover")
	require.NoError(t, err)
	assert.Empty(t, p.Statuses)

	assert.ErrorIs(t, s.SetStatus(ctx, "ghost", core.StatusEngaged, true), scene.ErrPieceNotFound)
}

func TestStore_MoveAndRemove(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.MovePiece(ctx, "mover", core.Point{X: 5, Y: 7}))
	p, err := s.Piece(ctx, "mover")
	require.NoError(t, err)
	assert.Equal(t, core.Point{X: 5, Y: 7}, p.Position)

	require.NoError(t, s.RemovePiece(ctx, "mover"))
	pieces, err := s.Pieces(ctx)
	require.NoError(t, err)
	assert.Len(t, pieces, 1)
	assert.ErrorIs(t, s.MovePiece(ctx, "mover", core.Point{}), scene.ErrPieceNotFound)
}

func TestStore_SetUserActive(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetUserActive(ctx, "alice", false))
	users, err := s.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, scene.ActiveUsers(users), 1)
	assert.Error(t, s.SetUserActive(ctx, "nobody", true))
}

func TestStore_History(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := core.TriggerEvent{PieceID: "mover", Start: core.Point{X: 0, Y: 0}, End: core.Point{X: 300, Y: 0}}
	require.NoError(t, s.RecordOverwatch(ctx, e, []core.TriggeredReactor{{ReactorID: "reactor", MoverID: "mover"}}))
	require.NoError(t, s.RecordOverwatch(ctx, e, nil))

	rows, err := s.OverwatchHistory(ctx, "reactor")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mover", rows[0].MoverID)
	assert.Equal(t, 2, rows[0].Path.Coordinates().Length())
	assert.True(t, rows[0].Time.Equal(s.now()), "time survives the round trip: %v", rows[0].Time)

	require.NoError(t, s.RecordEngagement(ctx, threat.EngagementDiff{Entered: []string{"a", "b"}, Left: []string{"c"}}))
	var changes []model.EngagementChange
	require.NoError(t, s.db.Order("id").Find(&changes).Error)
	require.Len(t, changes, 3)
	assert.True(t, changes[0].Engaged)
	assert.False(t, changes[2].Engaged)
	assert.True(t, changes[0].Time.Equal(s.now()), "time survives the round trip: %v", changes[0].Time)
}
