package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/kazz187/missioncontrol/internal/app"
	"github.com/kazz187/missioncontrol/internal/config"
	"github.com/kazz187/missioncontrol/internal/server"
	"github.com/kazz187/missioncontrol/pkg/panicerr"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}
	app.SetupLogger(env)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	a, err := app.New(ctx, env)
	if err != nil {
		slog.Error("failed to set up", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(env, a.Tasks, a.WarRoom, a.Overview, a.Bus)

	var wg conc.WaitGroup
	wg.Go(func() {
		// The server keeps running without the watcher.
		watch := panicerr.Safe(func() error { return a.RunWatcher(ctx) })
		if err := watch(); err != nil {
			slog.Error("document watcher stopped", "error", err)
		}
	})
	wg.Go(func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	wg.Wait()
}
