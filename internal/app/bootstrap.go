// Package app wires the pipeline dependencies shared by the runner and the
// worker binaries.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"news-digest/internal/adapters/mail"
	"news-digest/internal/adapters/repo"
	"news-digest/internal/adapters/storage"
	"news-digest/internal/adapters/summarizer"
	"news-digest/internal/crawler"
	"news-digest/internal/domain"
	"news-digest/internal/infra/config"
	"news-digest/internal/infra/db"
	"news-digest/internal/infra/openai"
	"news-digest/internal/usecase/pipeline"
	"news-digest/internal/usecase/routing"
)

// BuildService constructs a fully wired pipeline service. The returned pool
// must be closed by the caller.
func BuildService(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*pipeline.Service, *pgxpool.Pool, error) {
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	store, err := storage.NewMinio(ctx, storage.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	}, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect minio: %w", err)
	}

	pg := repo.NewPostgres(pool)

	svc := pipeline.NewService(
		pipeline.Config{
			MaxArticles:    cfg.Digest.MaxArticles,
			CrawlDelay:     cfg.Digest.CrawlDelay,
			SummaryMaxNews: cfg.Digest.SummaryMaxNews,
			MorningHour:    cfg.Digest.MorningHour,
			Recipients:     cfg.RecipientList(),
			RetryAttempts:  cfg.Retry.Attempts,
			RetryDelay:     cfg.Retry.Delay,
		},
		Sources(logger),
		pg,
		pg,
		store,
		summarizer.NewOpenAI(
			openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout),
			cfg.OpenAI.Model,
			cfg.Digest.Theme,
			cfg.Digest.SummaryMaxNews,
			cfg.OpenAI.Timeout,
		),
		routing.NewRouter(pg, logger),
		mail.NewSMTP(mail.Config{
			Host:              cfg.SMTP.Host,
			Port:              cfg.SMTP.Port,
			User:              cfg.SMTP.User,
			Password:          cfg.SMTP.Password,
			UnsubscribeSecret: cfg.Digest.UnsubscribeSecret,
			PreferencesURL:    cfg.Digest.PreferencesURL,
		}, logger),
		pg,
		logger,
	)
	return svc, pool, nil
}

// Sources builds the configured news portal crawlers.
func Sources(logger zerolog.Logger) []domain.Source {
	client := &http.Client{Timeout: 30 * time.Second}
	configs := crawler.Sources()
	sources := make([]domain.Source, 0, len(configs))
	for _, sc := range configs {
		sources = append(sources, crawler.New(sc, client, logger))
	}
	return sources
}
