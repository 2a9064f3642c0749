package threat

import (
	"context"
	"errors"
	"fmt"

	"github.com/tacgrid/reactions/pkg/core"
)

// EngagementDiff lists the pieces whose engaged flag changed.
type EngagementDiff struct {
	Entered []string `json:"entered"`
	Left    []string `json:"left"`
}

// Empty reports whether nothing changed.
func (d EngagementDiff) Empty() bool {
	return len(d.Entered) == 0 && len(d.Left) == 0
}

// CanEngage reports whether a and b are eligible to engage each other, ignoring distance.
func (e *Evaluator) CanEngage(a, b core.Piece) bool {
	if a.ID == b.ID || a.Actor == nil || b.Actor == nil {
		return false
	}
	if !e.classifier.Hostile(a, b) {
		return false
	}
	for _, p := range []core.Piece{a, b} {
		if p.Actor.Type == core.ActorDeployable || p.Actor.Destroyed() || e.disqualified(p) {
			return false
		}
	}
	return true
}

// ReconcileEngagements flags every eligible adjacent hostile pair as engaged and
// clears the flag from pieces no longer in such a pair.
// Flag writes are not transactional; the diff lists every transition attempted.
func (e *Evaluator) ReconcileEngagements(ctx context.Context, pieces []core.Piece) (EngagementDiff, error) {
	should := make(map[string]bool, len(pieces))
	for i := range pieces {
		for j := i + 1; j < len(pieces); j++ {
			a, b := pieces[i], pieces[j]
			if should[a.ID] && should[b.ID] {
				continue
			}
			if e.CanEngage(a, b) && e.deps.Oracle.MinDistance(a, b, nil) <= 1 {
				should[a.ID] = true
				should[b.ID] = true
			}
		}
	}

	var diff EngagementDiff
	var errs []error
	for _, p := range pieces {
		current := e.engaged(p)
		switch {
		case should[p.ID] && !current:
			diff.Entered = append(diff.Entered, p.ID)
			errs = append(errs, e.setEngaged(ctx, p, true))
		case !should[p.ID] && current:
			diff.Left = append(diff.Left, p.ID)
			errs = append(errs, e.setEngaged(ctx, p, false))
		}
	}

	if !diff.Empty() {
		e.log.Debug("Engagements reconciled", "entered", diff.Entered, "left", diff.Left)
	}
	return diff, errors.Join(errs...)
}

func (e *Evaluator) disqualified(p core.Piece) bool {
	if p.Hidden {
		return true
	}
	flags, hasFlags := e.deps.Flags.Get()
	for _, status := range disqualifying {
		if p.HasStatus(status) {
			return true
		}
		if hasFlags && flags.HasFlag(p, status) {
			return true
		}
	}
	return false
}

func (e *Evaluator) engaged(p core.Piece) bool {
	if flags, ok := e.deps.Flags.Get(); ok {
		return flags.HasFlag(p, core.StatusEngaged)
	}
	return p.HasStatus(core.StatusEngaged)
}

func (e *Evaluator) setEngaged(ctx context.Context, p core.Piece, active bool) error {
	var err error
	if flags, ok := e.deps.Flags.Get(); ok {
		err = flags.SetFlag(ctx, p, core.StatusEngaged, active)
	} else {
		err = e.deps.Scene.SetStatus(ctx, p.ID, core.StatusEngaged, active)
	}
	if err != nil {
		return fmt.Errorf("failed to set engaged on %s: %w", p.ID, err)
	}
	return nil
}
