package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spacesedan/feedbackflow/config"
	"github.com/spacesedan/feedbackflow/internal/app"
	"github.com/spacesedan/feedbackflow/internal/clients/kafka_client"
	"github.com/spacesedan/feedbackflow/internal/consumers"
	"github.com/spacesedan/feedbackflow/internal/logging"
	"github.com/spacesedan/feedbackflow/internal/monitoring"
)

func main() {
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

	var producer *kafka_client.Producer
	for producer == nil {
		p, err := kafka_client.NewProducer(ctx, cfg.Kafka)
		if err == nil {
			producer = p
			break
		}
		slog.Warn("[Main] Kafka producer init failed, retrying...", slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer producer.Close()

	storeHealthy := &atomic.Bool{}
	storeHealthy.Store(true)
	go monitoring.MonitorHealth(ctx, "store", deps.Store, storeHealthy)

	var opts []consumers.FeedbackConsumerOption
	if deps.Valkey != nil {
		opts = append(opts, consumers.WithProcessedSet(deps.Valkey))
	}
	fc := consumers.NewFeedbackConsumer(deps.Pipeline, producer, cfg.Kafka.ResultsTopic, opts...)

	kafka_client.RegisterConsumer(cfg.Kafka.Topic, consumers.WrapConsumer(fc.Run, storeHealthy).Handler())

	if err := kafka_client.StartConsumer(ctx, cfg.Kafka); err != nil {
		slog.Error("[Main] Failed to start consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
