package threat

import (
	"github.com/tacgrid/reactions/internal/capability"
	"github.com/tacgrid/reactions/pkg/core"
)

// Relation is how two pieces regard each other.
type Relation int

const (
	RelationNeutral Relation = iota
	RelationFriendly
	RelationHostile
)

func (r Relation) String() string {
	switch r {
	case RelationFriendly:
		return "friendly"
	case RelationHostile:
		return "hostile"
	default:
		return "neutral"
	}
}

// FactionProvider overrides the disposition rule with an external faction system.
type FactionProvider interface {
	Relation(a, b core.Piece) Relation
}

// Classifier decides hostility between pieces.
type Classifier struct {
	factions capability.Capability[FactionProvider]
}

// NewClassifier creates a classifier that prefers the faction provider when present.
func NewClassifier(factions capability.Capability[FactionProvider]) Classifier {
	return Classifier{factions: factions}
}

// Relation returns the relation of a towards b.
func (c Classifier) Relation(a, b core.Piece) Relation {
	if f, ok := c.factions.Get(); ok {
		return f.Relation(a, b)
	}
	return DispositionRelation(a.Disposition, b.Disposition)
}

// Hostile reports whether a and b are enemies.
func (c Classifier) Hostile(a, b core.Piece) bool {
	return c.Relation(a, b) == RelationHostile
}

// DispositionRelation splits dispositions into friendly/neutral and hostile/secret sides.
// Pieces on the same side are friendly, pieces on opposite sides hostile.
func DispositionRelation(a, b core.Disposition) Relation {
	if dark(a) != dark(b) {
		return RelationHostile
	}
	return RelationFriendly
}

func dark(d core.Disposition) bool {
	return d == core.DispositionHostile || d == core.DispositionSecret
}
