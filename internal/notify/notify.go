// Package notify routes triggered overwatch reactions to the users who control the reactors.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/pkg/core"
	"github.com/tacgrid/reactions/pkg/streaming"
)

const instrumentationName = "github.com/tacgrid/reactions/internal/notify"

// Alert is one user's view of a trigger: the reactors they control that may react to the target.
type Alert struct {
	ReactorIDs []string
	TargetID   string
	UserID     string
}

// Renderer presents alerts in one session's UI.
type Renderer interface {
	RenderOverwatch(ctx context.Context, a Alert) error
}

// Publisher sends envelopes to the other sessions.
type Publisher interface {
	Publish(ctx context.Context, env streaming.Envelope) error
}

// LogRenderer renders alerts as log lines.
type LogRenderer struct {
	Logger *slog.Logger
}

// RenderOverwatch implements Renderer.
func (r LogRenderer) RenderOverwatch(ctx context.Context, a Alert) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Overwatch triggered",
		"reactors", a.ReactorIDs,
		"target", a.TargetID,
		"user", a.UserID,
	)
	return nil
}

// Config wires a Dispatcher.
type Config struct {
	Scene     scene.Provider
	Publisher Publisher
	Renderer  Renderer
	UserID    string // the local session's user
	Logger    *slog.Logger
}

// Dispatcher renders alerts for the local user and publishes them for everyone else.
type Dispatcher struct {
	scene     scene.Provider
	publisher Publisher
	renderer  Renderer
	userID    string
	logger    *slog.Logger

	rendered  metric.Int64Counter
	published metric.Int64Counter
	failed    metric.Int64Counter
}

// New creates a Dispatcher. Metrics use the global OTel meter (no-op if not configured).
func New(cfg Config) (*Dispatcher, error) {
	d := &Dispatcher{
		scene:     cfg.Scene,
		publisher: cfg.Publisher,
		renderer:  cfg.Renderer,
		userID:    cfg.UserID,
		logger:    cfg.Logger,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.renderer == nil {
		d.renderer = LogRenderer{Logger: d.logger}
	}

	m := otel.Meter(instrumentationName)
	var err error
	d.rendered, err = m.Int64Counter("notify.alerts.rendered",
		metric.WithDescription("Alerts rendered in the local session"))
	if err != nil {
		return nil, fmt.Errorf("creating rendered counter: %w", err)
	}
	d.published, err = m.Int64Counter("notify.alerts.published",
		metric.WithDescription("Alerts published to other sessions"))
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}
	d.failed, err = m.Int64Counter("notify.alerts.failed",
		metric.WithDescription("Alerts that could not be rendered or published"))
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}
	return d, nil
}

// OwningUsers returns the active users that control p: its active owners, or the
// active GMs when no owner is connected.
func OwningUsers(p core.Piece, users []core.User) []core.User {
	var owners, gms []core.User
	for _, u := range scene.ActiveUsers(users) {
		if p.OwnedBy(u.ID) {
			owners = append(owners, u)
		} else if u.GM {
			gms = append(gms, u)
		}
	}
	if len(owners) > 0 {
		return owners
	}
	return gms
}

// DispatchTrigger groups the triggered reactors by owning user. The local user's
// group is rendered at once; every other user gets one published alert.
// Failures are logged and counted, never returned.
func (d *Dispatcher) DispatchTrigger(ctx context.Context, triggered []core.TriggeredReactor, moved core.Piece) {
	if len(triggered) == 0 {
		return
	}

	users, err := d.scene.Users(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to load users for overwatch dispatch", "error", err)
		return
	}
	pieces, err := d.scene.Pieces(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to load pieces for overwatch dispatch", "error", err)
		return
	}
	byID := make(map[string]core.Piece, len(pieces))
	for _, p := range pieces {
		byID[p.ID] = p
	}

	var order []string
	groups := make(map[string][]string)
	for _, t := range triggered {
		reactor, ok := byID[t.ReactorID]
		if !ok {
			d.logger.DebugContext(ctx, "Triggered reactor no longer in scene", "reactor", t.ReactorID)
			continue
		}
		for _, u := range OwningUsers(reactor, users) {
			if _, seen := groups[u.ID]; !seen {
				order = append(order, u.ID)
			}
			groups[u.ID] = append(groups[u.ID], t.ReactorID)
		}
	}

	for _, userID := range order {
		a := Alert{ReactorIDs: groups[userID], TargetID: moved.ID, UserID: userID}
		if userID == d.userID {
			d.render(ctx, a)
			continue
		}
		d.publish(ctx, a)
	}
}

// HandleEnvelope renders inbound alerts addressed to the local user and ignores everything else.
func (d *Dispatcher) HandleEnvelope(ctx context.Context, env streaming.Envelope) {
	if env.Action != streaming.ActionOverwatchAlert {
		return
	}
	p, err := streaming.DecodeOverwatchAlert(env)
	if err != nil {
		d.logger.WarnContext(ctx, "Ignoring malformed overwatch alert", "id", env.ID, "error", err)
		return
	}
	if p.UserID != d.userID {
		return
	}
	d.render(ctx, Alert{ReactorIDs: p.ReactorIDs, TargetID: p.TargetID, UserID: p.UserID})
}

func (d *Dispatcher) render(ctx context.Context, a Alert) {
	if err := d.renderer.RenderOverwatch(ctx, a); err != nil {
		d.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "render")))
		d.logger.ErrorContext(ctx, "Failed to render overwatch alert", "target", a.TargetID, "error", err)
		return
	}
	d.rendered.Add(ctx, 1)
}

func (d *Dispatcher) publish(ctx context.Context, a Alert) {
	failed := func(err error) {
		d.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "publish")))
		d.logger.WarnContext(ctx, "Failed to publish overwatch alert", "user", a.UserID, "target", a.TargetID, "error", err)
	}
	if d.publisher == nil {
		failed(errors.New("no broadcast channel"))
		return
	}
	env, err := streaming.NewEnvelope(streaming.ActionOverwatchAlert, streaming.OverwatchAlertPayload{
		ReactorIDs: a.ReactorIDs,
		TargetID:   a.TargetID,
		UserID:     a.UserID,
	})
	if err != nil {
		failed(err)
		return
	}
	if err := d.publisher.Publish(ctx, env); err != nil {
		failed(err)
		return
	}
	d.published.Add(ctx, 1)
}
