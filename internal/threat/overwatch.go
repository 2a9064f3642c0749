package threat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tacgrid/reactions/internal/capability"
	"github.com/tacgrid/reactions/internal/distance"
	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/pkg/core"
)

var (
	// ErrNoActor is returned when a reaction is requested from a piece without an actor
	ErrNoActor = errors.New("piece has no actor")
	// ErrNoReactions is returned when the actor has no reaction left
	ErrNoReactions = errors.New("no reactions left")
)

// Dependencies holds all dependencies for the evaluator
type Dependencies struct {
	Scene  scene.Provider
	Oracle *distance.Oracle
	UserID string // local session user
	Logger *slog.Logger

	Factions capability.Capability[FactionProvider]
	Zones    capability.Capability[ZoneProvider]
	Flags    capability.Capability[FlagProvider]
	Scripts  capability.Capability[ScriptEvaluator]
}

// Evaluator runs overwatch and engagement checks for one session.
type Evaluator struct {
	deps       Dependencies
	classifier Classifier
	log        *slog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(deps Dependencies) *Evaluator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{
		deps:       deps,
		classifier: NewClassifier(deps.Factions),
		log:        log.With("component", "threat"),
	}
}

// Classifier returns the hostility classifier in use.
func (e *Evaluator) Classifier() Classifier {
	return e.classifier
}

// IsOverwatchTriggered reports whether reactor gets an overwatch reaction against
// mover starting its move at start.
func (e *Evaluator) IsOverwatchTriggered(ctx context.Context, reactor, mover core.Piece, start core.Point) bool {
	if reactor.ID == mover.ID {
		return false
	}
	if !e.classifier.Hostile(reactor, mover) {
		return false
	}
	if reactor.Actor == nil || reactor.Actor.Reactions <= 0 {
		return false
	}

	if zones, ok := e.deps.Zones.Get(); ok {
		if zone, ok := zones.ZoneFor(ctx, reactor); ok {
			return zone.Contains(e.deps.Oracle.Sampler().Center(mover, &start))
		}
	}

	return e.deps.Oracle.MinDistance(mover, reactor, &start) <= MaxThreat(reactor.Actor)
}

// EvaluateOverwatch returns every reactor the local user controls that gets an
// overwatch reaction against moved, in scene order.
func (e *Evaluator) EvaluateOverwatch(ctx context.Context, moved core.Piece, start, end core.Point) []core.TriggeredReactor {
	pieces, err := e.deps.Scene.Pieces(ctx)
	if err != nil {
		e.log.Error("Failed to read pieces for overwatch", "error", err)
		return nil
	}
	local := e.localUser(ctx)

	var triggered []core.TriggeredReactor
	for _, p := range pieces {
		if p.ID == moved.ID || p.Actor == nil {
			continue
		}
		if !local.CanWrite(p) || p.Actor.Reactions <= 0 {
			continue
		}
		if !e.classifier.Hostile(p, moved) {
			continue
		}
		if e.IsOverwatchTriggered(ctx, p, moved, start) {
			triggered = append(triggered, core.TriggeredReactor{ReactorID: p.ID, MoverID: moved.ID})
		}
	}

	e.log.Debug("Overwatch evaluated",
		"mover", moved.ID,
		"start", start,
		"end", end,
		"candidates", len(pieces),
		"triggered", len(triggered),
	)
	return triggered
}

// ConsumeReaction spends one reaction of the reactor's actor and waits for the write.
func (e *Evaluator) ConsumeReaction(ctx context.Context, reactorID string) error {
	p, err := e.deps.Scene.Piece(ctx, reactorID)
	if err != nil {
		return err
	}
	if p.Actor == nil {
		return fmt.Errorf("%w: %s", ErrNoActor, reactorID)
	}
	if p.Actor.Reactions <= 0 {
		return fmt.Errorf("%w: %s", ErrNoReactions, reactorID)
	}
	if err := e.deps.Scene.SetReactions(ctx, p.Actor.ID, p.Actor.Reactions-1); err != nil {
		return fmt.Errorf("failed to consume reaction: %w", err)
	}
	e.log.Info("Reaction consumed", "reactor", reactorID, "remaining", p.Actor.Reactions-1)
	return nil
}

// NewTriggerContext fills the predicate input for a reactor/mover pair.
func (e *Evaluator) NewTriggerContext(reactor, mover core.Piece, start, end core.Point) TriggerContext {
	return TriggerContext{
		Reactor:  reactor,
		Mover:    mover,
		Start:    start,
		End:      end,
		Distance: e.deps.Oracle.MinDistance(mover, reactor, &start),
		Threat:   MaxThreat(reactor.Actor),
		UserID:   e.deps.UserID,
	}
}

// Matches evaluates a predicate. Scripts without an evaluator never match.
func (e *Evaluator) Matches(ctx context.Context, p Predicate, tc TriggerContext) bool {
	switch p.Kind {
	case PredicateBuiltin:
		switch p.Builtin {
		case BuiltinAlways:
			return true
		case BuiltinHostile:
			return e.classifier.Hostile(tc.Reactor, tc.Mover)
		case BuiltinWithinThreat:
			return tc.Distance <= tc.Threat
		}
		return false
	case PredicateScript:
		scripts, ok := e.deps.Scripts.Get()
		if !ok {
			return false
		}
		ok, err := scripts.Evaluate(ctx, p.Script, tc)
		if err != nil {
			e.log.Warn("Predicate script failed", "script", p.Script.ID, "error", err)
			return false
		}
		return ok
	}
	return false
}

func (e *Evaluator) localUser(ctx context.Context) core.User {
	users, err := e.deps.Scene.Users(ctx)
	if err != nil {
		e.log.Warn("Failed to read users", "error", err)
	}
	if u, ok := scene.FindUser(users, e.deps.UserID); ok {
		return u
	}
	return core.User{ID: e.deps.UserID}
}
