// Package session wires one connected user's reaction handling: scene callbacks
// go through an event dispatcher to the evaluator, triggers go out through the
// notifier, and inbound broadcast alerts are rendered locally.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tacgrid/reactions/internal/broadcast"
	"github.com/tacgrid/reactions/internal/dispatcher"
	"github.com/tacgrid/reactions/internal/logging"
	"github.com/tacgrid/reactions/internal/notify"
	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/internal/threat"
	"github.com/tacgrid/reactions/pkg/core"
	"github.com/tacgrid/reactions/pkg/streaming"
)

// Commands handled by the controller.
const (
	CommandPieceMoved     = "pieceMoved"
	CommandPieceUpdated   = "pieceUpdated"
	CommandOverwatchAlert = "overwatchAlert"
	commandRecord         = "recordTelemetry"
)

const recordQueueSize = 256

// Recorder stores reaction history. The gorm scene store and the influx manager implement it.
type Recorder interface {
	RecordOverwatch(ctx context.Context, e core.TriggerEvent, triggered []core.TriggeredReactor) error
	RecordEngagement(ctx context.Context, diff threat.EngagementDiff) error
}

// MoveResult is what a pieceMoved event produced.
type MoveResult struct {
	Triggered  []core.TriggeredReactor
	Engagement threat.EngagementDiff
}

type telemetry struct {
	event     core.TriggerEvent
	triggered []core.TriggeredReactor
	diff      threat.EngagementDiff
}

// Config wires a Controller.
type Config struct {
	Scene      scene.Provider
	Evaluator  *threat.Evaluator
	Notifier   *notify.Dispatcher
	Channel    broadcast.Channel // optional; inbound alerts are ignored without it
	Predicate  threat.Predicate
	Engagement bool
	Recorders  []Recorder
	Logger     *slog.Logger
}

// Controller handles one session's scene events.
type Controller struct {
	scene      scene.Provider
	evaluator  *threat.Evaluator
	notifier   *notify.Dispatcher
	predicate  threat.Predicate
	engagement bool
	recorders  []Recorder
	logger     *slog.Logger

	events      *dispatcher.Dispatcher
	unsubscribe func()
}

// New creates a controller and subscribes it to the broadcast channel.
func New(cfg Config) (*Controller, error) {
	if cfg.Scene == nil || cfg.Evaluator == nil || cfg.Notifier == nil {
		return nil, errors.New("session needs a scene, an evaluator and a notifier")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	predicate := cfg.Predicate
	if predicate.Kind == "" {
		predicate = threat.Always
	}

	events, err := dispatcher.New(logger)
	if err != nil {
		return nil, fmt.Errorf("creating event dispatcher: %w", err)
	}

	c := &Controller{
		scene:      cfg.Scene,
		evaluator:  cfg.Evaluator,
		notifier:   cfg.Notifier,
		predicate:  predicate,
		engagement: cfg.Engagement,
		recorders:  cfg.Recorders,
		logger:     logger,
		events:     events,
	}

	events.Register(CommandPieceMoved, c.handlePieceMoved, dispatcher.Logged())
	events.Register(CommandPieceUpdated, c.handlePieceUpdated, dispatcher.Logged())
	events.Register(CommandOverwatchAlert, c.handleOverwatchAlert)
	if len(c.recorders) > 0 {
		events.Register(commandRecord, c.handleRecord, dispatcher.Buffered(recordQueueSize), dispatcher.Logged())
	}

	if cfg.Channel != nil {
		c.unsubscribe = cfg.Channel.Subscribe(func(ctx context.Context, env streaming.Envelope) {
			if _, err := events.Dispatch(ctx, dispatcher.Event{Command: CommandOverwatchAlert, Payload: env}); err != nil {
				logger.WarnContext(ctx, "Failed to handle broadcast message", "action", env.Action, "error", err)
			}
		})
	}

	return c, nil
}

// PieceMoved feeds a movement callback through the session's dispatcher.
func (c *Controller) PieceMoved(ctx context.Context, e core.TriggerEvent) (MoveResult, error) {
	ctx = logging.WithAttrs(ctx, slog.String("piece", e.PieceID))
	res, err := c.events.Dispatch(ctx, dispatcher.Event{Command: CommandPieceMoved, Payload: e})
	if err != nil {
		return MoveResult{}, err
	}
	return res.(MoveResult), nil
}

// PieceUpdated feeds a non-movement update callback through the session's dispatcher.
func (c *Controller) PieceUpdated(ctx context.Context, pieceID string) (threat.EngagementDiff, error) {
	ctx = logging.WithAttrs(ctx, slog.String("piece", pieceID))
	res, err := c.events.Dispatch(ctx, dispatcher.Event{Command: CommandPieceUpdated, Payload: pieceID})
	if err != nil {
		return threat.EngagementDiff{}, err
	}
	return res.(threat.EngagementDiff), nil
}

// ActivateReaction spends one reaction of the reactor and waits for the write.
func (c *Controller) ActivateReaction(ctx context.Context, reactorID string) error {
	return c.evaluator.ConsumeReaction(ctx, reactorID)
}

// Close unsubscribes from the broadcast channel and drains queued telemetry.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.events.Close()
}

func (c *Controller) handlePieceMoved(ctx context.Context, ev dispatcher.Event) (any, error) {
	e, ok := ev.Payload.(core.TriggerEvent)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", CommandPieceMoved, ev.Payload)
	}
	if !e.Moved() {
		return MoveResult{}, nil
	}

	moved, err := c.scene.Piece(ctx, e.PieceID)
	if err != nil {
		return nil, fmt.Errorf("load moved piece: %w", err)
	}

	var res MoveResult
	res.Triggered = c.filter(ctx, moved, e, c.evaluator.EvaluateOverwatch(ctx, moved, e.Start, e.End))
	c.notifier.DispatchTrigger(ctx, res.Triggered, moved)

	if c.engagement {
		res.Engagement = c.reconcile(ctx)
	}

	c.record(ctx, telemetry{event: e, triggered: res.Triggered, diff: res.Engagement})
	return res, nil
}

func (c *Controller) handlePieceUpdated(ctx context.Context, ev dispatcher.Event) (any, error) {
	if _, ok := ev.Payload.(string); !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", CommandPieceUpdated, ev.Payload)
	}
	if !c.engagement {
		return threat.EngagementDiff{}, nil
	}
	diff := c.reconcile(ctx)
	c.record(ctx, telemetry{diff: diff})
	return diff, nil
}

func (c *Controller) handleOverwatchAlert(ctx context.Context, ev dispatcher.Event) (any, error) {
	env, ok := ev.Payload.(streaming.Envelope)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", CommandOverwatchAlert, ev.Payload)
	}
	c.notifier.HandleEnvelope(ctx, env)
	return nil, nil
}

func (c *Controller) handleRecord(ctx context.Context, ev dispatcher.Event) (any, error) {
	t, ok := ev.Payload.(telemetry)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", commandRecord, ev.Payload)
	}
	var errs []error
	for _, r := range c.recorders {
		if len(t.triggered) > 0 {
			errs = append(errs, r.RecordOverwatch(ctx, t.event, t.triggered))
		}
		if !t.diff.Empty() {
			errs = append(errs, r.RecordEngagement(ctx, t.diff))
		}
	}
	return nil, errors.Join(errs...)
}

// filter keeps the triggers that satisfy the session predicate.
func (c *Controller) filter(ctx context.Context, moved core.Piece, e core.TriggerEvent, triggered []core.TriggeredReactor) []core.TriggeredReactor {
	if c.predicate == threat.Always || len(triggered) == 0 {
		return triggered
	}
	kept := triggered[:0]
	for _, t := range triggered {
		reactor, err := c.scene.Piece(ctx, t.ReactorID)
		if err != nil {
			c.logger.WarnContext(ctx, "Triggered reactor disappeared", "reactor", t.ReactorID, "error", err)
			continue
		}
		if c.evaluator.Matches(ctx, c.predicate, c.evaluator.NewTriggerContext(reactor, moved, e.Start, e.End)) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (c *Controller) reconcile(ctx context.Context) threat.EngagementDiff {
	pieces, err := c.scene.Pieces(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to read pieces for engagement", "error", err)
		return threat.EngagementDiff{}
	}
	diff, err := c.evaluator.ReconcileEngagements(ctx, pieces)
	if err != nil {
		c.logger.WarnContext(ctx, "Engagement reconciliation incomplete", "error", err)
	}
	return diff
}

func (c *Controller) record(ctx context.Context, t telemetry) {
	if len(c.recorders) == 0 || (len(t.triggered) == 0 && t.diff.Empty()) {
		return
	}
	if _, err := c.events.Dispatch(ctx, dispatcher.Event{Command: commandRecord, Payload: t}); err != nil {
		c.logger.WarnContext(ctx, "Dropping reaction telemetry", "error", err)
	}
}
