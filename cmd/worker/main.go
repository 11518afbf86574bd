package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"news-digest/internal/app"
	"news-digest/internal/domain"
	"news-digest/internal/infra/cache"
	"news-digest/internal/infra/config"
	applog "news-digest/internal/infra/log"
	"news-digest/internal/infra/metrics"
	"news-digest/internal/infra/queue"
	"news-digest/internal/usecase/routing"
)

const runLockTTL = 6 * time.Hour

// Worker: consumes run jobs from the queue and executes the pipeline. The
// Redis lock guarantees each date+slot runs at most once even with several
// workers attached to the queue.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, fmt.Sprintf(":%d", cfg.Port))

	svc, pool, err := app.BuildService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer pool.Close()

	lock := cache.NewRunLock(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))

	runs, err := queue.NewRunQueue(cfg.AMQPURL, cfg.Queues.Runs, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("rabbitmq connection failed")
	}
	defer runs.Close()

	handler := func(ctx context.Context, job domain.RunJob) error {
		slot := routing.ResolveSlot(job.Hour, cfg.Digest.MorningHour)
		ok, err := lock.Acquire(ctx, job.Date, slot, runLockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			logger.Info().
				Time("date", job.Date).
				Str("slot", string(slot)).
				Msg("run already executed, skipping")
			return nil
		}
		return svc.Run(ctx, job.Hour, job.Date)
	}

	logger.Info().Str("queue", cfg.Queues.Runs).Msg("worker started")
	if err := runs.Consume(ctx, handler); err != nil {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}
}
