package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"news-digest/internal/app"
	"news-digest/internal/infra/config"
	applog "news-digest/internal/infra/log"
	"news-digest/internal/infra/metrics"
)

// One-shot runner: executes a single pipeline pass for the given nominal
// hour and exits.
func main() {
	hour := flag.Int("hour", -1, "nominal run hour, defaults to the current hour")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("service", "pipeline").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("invalid timezone")
	}
	now := time.Now().In(loc)
	runHour := *hour
	if runHour < 0 {
		runHour = now.Hour()
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	svc, pool, err := app.BuildService(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer pool.Close()

	if err := svc.Run(ctx, runHour, now); err != nil {
		logger.Fatal().Err(err).Msg("pipeline run failed")
	}
	logger.Info().Msg("pipeline run complete")
}
