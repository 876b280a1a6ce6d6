package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/app"
	"github.com/spacesedan/feedbackflow/internal/logging"
	"github.com/spacesedan/feedbackflow/internal/streams"
)

func main() {
	config.LoadEnv(config.AppEnv())
	cfg := config.Load()
	logging.InitLogger(cfg.LogLevel)

	// built once per cold start and reused across invocations
	deps, err := app.Build(context.Background(), cfg)
	if err != nil {
		slog.Error("[StreamHandler] Cold start failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.Close()

	slog.Info("[StreamHandler] Initialization complete",
		slog.String("env", cfg.AppEnv),
		slog.String("store", cfg.Store.Driver))

	lambda.Start(streams.NewFeedbackStreamHandler(deps.Pipeline).Handle)
}
