// Command reactions-sim applies one piece move to a YAML scene and prints the
// overwatch triggers, the alerts sent to other sessions and the engagement diff.
//
//	reactions-sim <configDir> <scene.yaml> <pieceID> <toX> <toY>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tacgrid/reactions/internal/bootstrap"
	"github.com/tacgrid/reactions/internal/broadcast"
	"github.com/tacgrid/reactions/internal/capability"
	"github.com/tacgrid/reactions/internal/config"
	"github.com/tacgrid/reactions/internal/database"
	"github.com/tacgrid/reactions/internal/distance"
	"github.com/tacgrid/reactions/internal/grid"
	"github.com/tacgrid/reactions/internal/influx"
	"github.com/tacgrid/reactions/internal/notify"
	"github.com/tacgrid/reactions/internal/scene"
	"github.com/tacgrid/reactions/internal/scene/gormstore"
	"github.com/tacgrid/reactions/internal/scene/memory"
	"github.com/tacgrid/reactions/internal/session"
	"github.com/tacgrid/reactions/internal/threat"
	"github.com/tacgrid/reactions/pkg/core"
	"github.com/tacgrid/reactions/pkg/streaming"
)

const programName = "reactions-sim"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type moveArgs struct {
	configDir string
	scenePath string
	pieceID   string
	to        core.Point
}

func parseArgs(args []string) (moveArgs, error) {
	if len(args) != 5 {
		return moveArgs{}, fmt.Errorf("usage: %s <configDir> <scene.yaml> <pieceID> <toX> <toY>", programName)
	}
	x, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return moveArgs{}, fmt.Errorf("invalid toX %q: %w", args[3], err)
	}
	y, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return moveArgs{}, fmt.Errorf("invalid toY %q: %w", args[4], err)
	}
	return moveArgs{configDir: args[0], scenePath: args[1], pieceID: args[2], to: core.Point{X: x, Y: y}}, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	a, err := parseArgs(args)
	if err != nil {
		return err
	}

	rt, err := bootstrap.Start(ctx, a.configDir, programName, time.Now())
	if err != nil {
		return err
	}
	defer rt.Close(ctx)
	logger := rt.Logger

	layout, err := newLayout(config.GetGridConfig())
	if err != nil {
		return err
	}

	fixture, err := memory.LoadFile(a.scenePath, memory.WithGrid(layout))
	if err != nil {
		return err
	}

	var recorders []session.Recorder
	var store scene.Provider = fixture
	sceneCfg := config.GetSceneConfig()
	switch sceneCfg.Type {
	case "", "memory":
	case "sqlite", "postgres":
		db := database.NewManager(rt.Zerolog)
		db.SqliteFilePath = sceneCfg.SQLite.Path
		if err := db.Connect(sceneCfg.Type); err != nil {
			return err
		}
		defer db.Close()
		if err := db.Setup(); err != nil {
			return err
		}
		gs := gormstore.New(db.DB)
		if err := importFixture(ctx, gs, fixture); err != nil {
			return err
		}
		store = gs
		recorders = append(recorders, gs)
	default:
		return fmt.Errorf("unknown scene type: %s", sceneCfg.Type)
	}

	if config.GetBool("influx.enabled") {
		im := influx.NewManager(rt.Zerolog, config.GetInfluxConfig().BackupPath)
		im.SceneID = a.scenePath
		if err := im.Connect(); err != nil {
			logger.Warn("Influx telemetry disabled", "error", err)
		} else {
			defer im.Close()
			recorders = append(recorders, im)
		}
	}

	sessCfg := config.GetSessionConfig()
	userID, err := localUser(ctx, store, sessCfg.UserID)
	if err != nil {
		return err
	}
	predicate, err := threat.ParsePredicate(sessCfg.Predicate)
	if err != nil {
		return err
	}

	ch, err := broadcast.New(config.GetBroadcastConfig(), userID, logger)
	if err != nil {
		return err
	}
	defer ch.Close()

	oracle := distance.NewOracle(layout)
	deps := threat.Dependencies{
		Scene:  store,
		Oracle: oracle,
		UserID: userID,
		Logger: logger,
	}
	if sessCfg.Zones {
		deps.Zones = capability.Of[threat.ZoneProvider](threat.NewCellZones(oracle))
	}
	evaluator := threat.NewEvaluator(deps)
	notifier, err := notify.New(notify.Config{
		Scene:     store,
		Publisher: printingPublisher{Channel: ch, out: out},
		Renderer:  printingRenderer{out: out, log: notify.LogRenderer{Logger: logger}},
		UserID:    userID,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	ctl, err := session.New(session.Config{
		Scene:      store,
		Evaluator:  evaluator,
		Notifier:   notifier,
		Channel:    ch,
		Predicate:  predicate,
		Engagement: sessCfg.Engagement,
		Recorders:  recorders,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer ctl.Close()

	piece, err := store.Piece(ctx, a.pieceID)
	if err != nil {
		return fmt.Errorf("piece %s: %w", a.pieceID, err)
	}
	start := piece.Position
	if err := store.MovePiece(ctx, a.pieceID, a.to); err != nil {
		return err
	}
	logger.Info("Piece moved", "piece", a.pieceID, "from", start, "to", a.to, "user", userID)

	res, err := ctl.PieceMoved(ctx, core.TriggerEvent{PieceID: a.pieceID, Start: start, End: a.to})
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func newLayout(cfg config.GridConfig) (*grid.Layout, error) {
	topology, err := grid.ParseTopology(cfg.Topology)
	if err != nil {
		return nil, err
	}
	return grid.NewLayout(grid.Config{
		Topology:  topology,
		Size:      cfg.Size,
		Distance:  cfg.Distance,
		Units:     cfg.Units,
		Diagonals: grid.Diagonals(cfg.Diagonals),
	})
}

// localUser returns the configured user, or the first active GM of the scene.
func localUser(ctx context.Context, p scene.Provider, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	users, err := p.Users(ctx)
	if err != nil {
		return "", err
	}
	for _, u := range scene.ActiveUsers(users) {
		if u.GM {
			return u.ID, nil
		}
	}
	return "", errors.New("session.userId is not set and the scene has no active GM")
}

func importFixture(ctx context.Context, gs *gormstore.Store, fixture *memory.Store) error {
	users, err := fixture.Users(ctx)
	if err != nil {
		return err
	}
	pieces, err := fixture.Pieces(ctx)
	if err != nil {
		return err
	}
	return gs.Import(ctx, users, pieces)
}

type printingPublisher struct {
	broadcast.Channel
	out io.Writer
}

func (p printingPublisher) Publish(ctx context.Context, env streaming.Envelope) error {
	fmt.Fprintf(p.out, "message %s %s\n", env.Action, env.Payload)
	return p.Channel.Publish(ctx, env)
}

type printingRenderer struct {
	out io.Writer
	log notify.LogRenderer
}

func (r printingRenderer) RenderOverwatch(ctx context.Context, a notify.Alert) error {
	fmt.Fprintf(r.out, "alert %s: %s may react to %s\n", a.UserID, strings.Join(a.ReactorIDs, ","), a.TargetID)
	return r.log.RenderOverwatch(ctx, a)
}

func printResult(out io.Writer, res session.MoveResult) {
	if len(res.Triggered) == 0 {
		fmt.Fprintln(out, "no overwatch triggered")
	}
	for _, t := range res.Triggered {
		fmt.Fprintf(out, "triggered %s -> %s\n", t.ReactorID, t.MoverID)
	}
	diff, _ := json.Marshal(res.Engagement)
	fmt.Fprintf(out, "engagement %s\n", diff)
}
