package threat

import (
	"context"
	"fmt"
	"strings"

	"github.com/tacgrid/reactions/pkg/core"
)

// PredicateKind tags the variant held by a Predicate.
type PredicateKind string

const (
	PredicateBuiltin PredicateKind = "builtin"
	PredicateScript  PredicateKind = "script"
)

// Builtin predicates evaluated in-process.
type Builtin string

const (
	BuiltinAlways       Builtin = "always"
	BuiltinHostile      Builtin = "hostile"
	BuiltinWithinThreat Builtin = "within-threat"
)

// ScriptRef names an externally evaluated predicate.
type ScriptRef struct {
	ID string
}

// Predicate is an extra condition a trigger must satisfy before it is dispatched.
type Predicate struct {
	Kind    PredicateKind
	Builtin Builtin
	Script  ScriptRef
}

// Always is the predicate that accepts every trigger.
var Always = Predicate{Kind: PredicateBuiltin, Builtin: BuiltinAlways}

// ParsePredicate reads "builtin:<name>" or "script:<id>". An empty string is Always.
func ParsePredicate(s string) (Predicate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Always, nil
	}
	kind, arg, ok := strings.Cut(s, ":")
	if !ok || arg == "" {
		return Predicate{}, fmt.Errorf("invalid predicate %q", s)
	}
	switch PredicateKind(kind) {
	case PredicateBuiltin:
		switch b := Builtin(arg); b {
		case BuiltinAlways, BuiltinHostile, BuiltinWithinThreat:
			return Predicate{Kind: PredicateBuiltin, Builtin: b}, nil
		default:
			return Predicate{}, fmt.Errorf("unknown builtin predicate %q", arg)
		}
	case PredicateScript:
		return Predicate{Kind: PredicateScript, Script: ScriptRef{ID: arg}}, nil
	default:
		return Predicate{}, fmt.Errorf("unknown predicate kind %q", kind)
	}
}

func (p Predicate) String() string {
	if p.Kind == PredicateScript {
		return string(PredicateScript) + ":" + p.Script.ID
	}
	return string(PredicateBuiltin) + ":" + string(p.Builtin)
}

// TriggerContext is the fixed input handed to predicates.
type TriggerContext struct {
	Reactor  core.Piece
	Mover    core.Piece
	Start    core.Point
	End      core.Point
	Distance int // cells between mover at Start and reactor
	Threat   int // reactor's MaxThreat
	UserID   string
}

// ScriptEvaluator runs user-authored predicates in a sandbox.
type ScriptEvaluator interface {
	Evaluate(ctx context.Context, ref ScriptRef, tc TriggerContext) (bool, error)
}
