package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"news-digest/internal/adapters/repo"
	"news-digest/internal/adapters/web"
	"news-digest/internal/infra/config"
	"news-digest/internal/infra/db"
	apphttp "news-digest/internal/infra/http"
	applog "news-digest/internal/infra/log"
	"news-digest/internal/infra/metrics"
)

// Web: serves the token-gated subscriber preference pages.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv).With().Str("service", "web").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	srv := apphttp.NewServer(logger)
	pg := repo.NewPostgres(pool)
	web.NewHandler(pg, pg, cfg.Digest.UnsubscribeSecret, logger).Register(srv.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
