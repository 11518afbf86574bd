package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"news-digest/internal/domain"
	"news-digest/internal/infra/config"
	applog "news-digest/internal/infra/log"
	"news-digest/internal/infra/queue"
)

// Scheduler: publishes one run job at each configured hour. It checks the
// clock once a minute and fires when a slot hour begins.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("service", "scheduler").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("invalid timezone")
	}

	runs, err := queue.NewRunQueue(cfg.AMQPURL, cfg.Queues.Runs, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("rabbitmq connection failed")
	}
	defer runs.Close()

	logger.Info().
		Int("morning_hour", cfg.Digest.MorningHour).
		Int("evening_hour", cfg.Digest.EveningHour).
		Msg("scheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastFired string
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler stopped")
			return
		case now := <-ticker.C:
			now = now.In(loc)
			if now.Hour() != cfg.Digest.MorningHour && now.Hour() != cfg.Digest.EveningHour {
				continue
			}
			// One job per date+hour, no matter how many ticks land in the hour.
			fireKey := now.Format("2006-01-02") + ":" + now.Format("15")
			if fireKey == lastFired {
				continue
			}
			job := domain.RunJob{Hour: now.Hour(), Date: now.Truncate(24 * time.Hour)}
			if err := runs.Publish(ctx, job); err != nil {
				logger.Error().Err(err).Int("hour", job.Hour).Msg("publish run job failed")
				continue
			}
			lastFired = fireKey
			logger.Info().Int("hour", job.Hour).Time("date", job.Date).Msg("run job published")
		}
	}
}
