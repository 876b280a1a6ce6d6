// Command reset deletes all stored feedback and upload records from the
// configured store and drops cached reports.
//
//	go run ./cmd/reset -yes
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/app"
	"github.com/spacesedan/feedbackflow/internal/logging"
)

func main() {
	confirm := flag.Bool("yes", false, "confirm deleting every stored record")
	flag.Parse()

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Usage: reset -yes\nDeletes all stored feedback and uploads.\n")
		os.Exit(2)
	}

	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("[Main] Startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.Close()

	if err := deps.Pipeline.Reset(ctx); err != nil {
		slog.Error("[Main] Reset failed",
			slog.String("store", cfg.Store.Driver),
			slog.String("error", err.Error()))
		deps.Close()
		os.Exit(1)
	}
	slog.Info("[Main] Store reset", slog.String("store", cfg.Store.Driver))
}
