// Package bootstrap holds the process setup shared by the binaries: config,
// log file, slog fan-out, OTel and the zerolog logger of the storage managers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacgrid/reactions/internal/config"
	"github.com/tacgrid/reactions/internal/logging"
	intOtel "github.com/tacgrid/reactions/internal/otel"
)

// Runtime is the logging state of one process.
type Runtime struct {
	Slog    *logging.SlogManager
	Logger  *slog.Logger
	Zerolog zerolog.Logger
	OTel    *intOtel.Provider

	LogFilePath string
	logFile     *os.File
}

// Start loads configuration from configDir and sets up logging for program.
// A missing config file is logged and defaults are used.
func Start(ctx context.Context, configDir, program string, sessionStart time.Time) (*Runtime, error) {
	rt := &Runtime{Slog: logging.NewSlogManager()}

	rt.Slog.Setup(logging.Options{File: os.Stderr, Level: "info"})
	rt.Logger = rt.Slog.Logger()

	if err := config.Load(configDir); err != nil {
		rt.Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		rt.Logger.Info("Loaded config", "dir", configDir)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	rt.LogFilePath = logging.LogFilePath(logsDir, program, sessionStart)
	f, err := os.OpenFile(rt.LogFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	rt.logFile = f

	session := config.GetSessionConfig()
	otelCfg := config.GetOTelConfig()
	rt.OTel, err = intOtel.New(ctx, intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		SessionUser:  session.UserID,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    f,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		rt.Logger.Error("Failed to initialize OTel provider", "error", err)
		rt.OTel, _ = intOtel.New(ctx, intOtel.Config{})
	}

	opts := logging.Options{
		File:        io.MultiWriter(os.Stderr, f),
		Level:       config.GetString("logLevel"),
		ServiceName: otelCfg.ServiceName,
		Provider:    rt.OTel.LoggerProvider(),
		Context:     logging.SessionContext(session.UserID, config.GetSceneConfig().File),
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address)
		if err != nil {
			rt.Logger.Warn("Graylog disabled", "error", err)
		} else {
			opts.Graylog = w
		}
	}

	rt.Slog.Setup(opts)
	rt.Logger = rt.Slog.Logger()
	rt.Zerolog = logging.NewZerolog(f, config.GetString("logLevel"))
	rt.Logger.Info("Logging to file", "path", rt.LogFilePath, "otel", rt.OTel.Enabled())
	return rt, nil
}

// Close flushes telemetry and closes the log sinks.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.OTel != nil {
		errs = append(errs, rt.OTel.Shutdown(ctx))
	}
	errs = append(errs, rt.Slog.Close())
	if rt.logFile != nil {
		errs = append(errs, rt.logFile.Close())
	}
	return errors.Join(errs...)
}
