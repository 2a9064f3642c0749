package threat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tacgrid/reactions/internal/capability"
	"github.com/tacgrid/reactions/internal/distance"
	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/internal/scene/memory"
	"github.com/tacgrid/reactions/pkg/core"
)

type fixture struct {
	store  *memory.Store
	oracle *distance.Oracle
}

func newFixture(t *testing.T, topo grid.Topology) *fixture {
	t.Helper()
	l, err := grid.NewLayout(grid.Config{Topology: topo, Size: 100})
	require.NoError(t, err)
	f := &fixture{store: memory.New(), oracle: distance.NewOracle(l)}
	f.store.AddUser(core.User{ID: "alice", Active: true})
	f.store.AddUser(core.User{ID: "bob", Active: true})
	f.store.AddUser(core.User{ID: "gm", Active: true, GM: true})
	return f
}

func (f *fixture) evaluator(userID string, opts ...func(*Dependencies)) *Evaluator {
	deps := Dependencies{Scene: f.store, Oracle: f.oracle, UserID: userID}
	for _, o := range opts {
		o(&deps)
	}
	return NewEvaluator(deps)
}

// at returns the top-left position that centres a 1×1 piece on cell c.
func (f *fixture) at(c grid.OffsetCoord) core.Point {
	m := f.oracle.Sampler().Metrics()
	w, h := m.CellSize()
	center := m.OffsetToPixelCenter(c)
	return core.Point{X: center.X - w/2, Y: center.Y - h/2}
}

func (f *fixture) piece(t *testing.T, id string) core.Piece {
	t.Helper()
	p, err := f.store.Piece(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) pieces(t *testing.T) []core.Piece {
	t.Helper()
	ps, err := f.store.Pieces(context.Background())
	require.NoError(t, err)
	return ps
}

func intPtr(v int) *int { return &v }

func weapon(threat string) core.Item {
	return core.Item{
		ID:            "w-" + threat,
		Type:          core.ItemMechWeapon,
		Equipped:      true,
		Ranges:        []core.RangeEntry{{Type: RangeThreat, Val: threat}},
		ActiveProfile: -1,
	}
}

func mech(id string, reactions int, items ...core.Item) *core.Actor {
	return &core.Actor{ID: id, Type: core.ActorMech, Structure: intPtr(4), Reactions: reactions, Items: items}
}

func withZones(z ZoneProvider) func(*Dependencies) {
	return func(d *Dependencies) { d.Zones = capability.Of(z) }
}

func withFlags(f FlagProvider) func(*Dependencies) {
	return func(d *Dependencies) { d.Flags = capability.Of(f) }
}

func withFactions(f FactionProvider) func(*Dependencies) {
	return func(d *Dependencies) { d.Factions = capability.Of(f) }
}

func withScripts(s ScriptEvaluator) func(*Dependencies) {
	return func(d *Dependencies) { d.Scripts = capability.Of(s) }
}
