package threat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tacgrid/reactions/internal/capability"
	"github.com/tacgrid/reactions/pkg/core"
)

type fixedFactions Relation

func (f fixedFactions) Relation(a, b core.Piece) Relation { return Relation(f) }

func TestDispositionRelation(t *testing.T) {
	all := []core.Disposition{core.DispositionSecret, core.DispositionHostile, core.DispositionNeutral, core.DispositionFriendly}
	light := map[core.Disposition]bool{core.DispositionNeutral: true, core.DispositionFriendly: true}

	for _, a := range all {
		for _, b := range all {
			want := RelationFriendly
			if light[a] != light[b] {
				want = RelationHostile
			}
			assert.Equal(t, want, DispositionRelation(a, b), "%s vs %s", a, b)
			assert.Equal(t, DispositionRelation(a, b), DispositionRelation(b, a))
		}
	}
}

func TestClassifier_FactionOverride(t *testing.T) {
	friend := core.Piece{Disposition: core.DispositionFriendly}
	enemy := core.Piece{Disposition: core.DispositionHostile}

	builtin := NewClassifier(capability.None[FactionProvider]())
	assert.True(t, builtin.Hostile(friend, enemy))

	peace := NewClassifier(capability.Of[FactionProvider](fixedFactions(RelationNeutral)))
	assert.False(t, peace.Hostile(friend, enemy))
	assert.Equal(t, "neutral", peace.Relation(friend, enemy).String())

	war := NewClassifier(capability.Of[FactionProvider](fixedFactions(RelationHostile)))
	assert.True(t, war.Hostile(friend, friend))
}
