package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

// Pinger is anything with a cheap liveness probe: the feedback store and the
// Valkey cache both qualify.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MonitorHealth probes target once immediately and then on every tick,
// storing the result in healthy until ctx is cancelled.
func MonitorHealth(ctx context.Context, name string, target Pinger, healthy *atomic.Bool) {
	monitor(ctx, name, target, healthy, time.Second*HEALTHCHECK_TIMER)
}

func monitor(ctx context.Context, name string, target Pinger, healthy *atomic.Bool, every time.Duration) {
	check(ctx, name, target, healthy)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check(ctx, name, target, healthy)
		}
	}
}

func check(ctx context.Context, name string, target Pinger, healthy *atomic.Bool) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := target.Ping(pingCtx)
	wasHealthy := healthy.Swap(err == nil)
	if err != nil {
		slog.Warn("[HealthCheck] Dependency is unhealthy",
			slog.String("dependency", name),
			slog.String("error", err.Error()))
		return
	}
	if !wasHealthy {
		slog.Info("[HealthCheck] Dependency is healthy", slog.String("dependency", name))
	}
}
