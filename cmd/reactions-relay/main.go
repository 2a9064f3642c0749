// Command reactions-relay serves the websocket hub that connects the sessions
// of a scene.
//
//	reactions-relay <configDir>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tacgrid/reactions/internal/bootstrap"
	"github.com/tacgrid/reactions/internal/broadcast/websocket"
	"github.com/tacgrid/reactions/internal/config"
)

const (
	programName     = "reactions-relay"
	shutdownTimeout = 5 * time.Second
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <configDir>\n", programName)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Start(ctx, os.Args[1], programName, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer rt.Close(context.Background())

	ln, err := net.Listen("tcp", config.GetRelayConfig().Listen)
	if err != nil {
		rt.Logger.Error("Failed to listen", "error", err)
		os.Exit(1)
	}
	if err := serve(ctx, ln, rt.Logger); err != nil {
		rt.Logger.Error("Relay stopped", "error", err)
		os.Exit(1)
	}
}

// serve runs the hub on ln until ctx is done.
func serve(ctx context.Context, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	hub := websocket.NewHub(logger)
	srv := &http.Server{
		Handler:           hub.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Relay listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down relay")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
