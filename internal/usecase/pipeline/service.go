// Package pipeline orchestrates one digest run end to end: crawl,
// validate, persist, synthesize, deliver.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"news-digest/internal/domain"
	"news-digest/internal/infra/metrics"
	"news-digest/internal/usecase/routing"
	"news-digest/internal/usecase/validate"
)

// Stage names, used in metrics labels and failure alerts.
const (
	StageCrawl      = "coleta"
	StageValidate   = "validacao"
	StageStore      = "persistencia"
	StageSynthesize = "sintese"
	StageDeliver    = "entrega"
)

// Config carries the run parameters.
type Config struct {
	MaxArticles    int
	CrawlDelay     time.Duration
	SummaryMaxNews int
	MorningHour    int
	Recipients     []string

	// RetryAttempts and RetryDelay apply to every retryable stage: crawl,
	// store, synthesize, deliver. Safe to repeat since the writes upsert
	// and delivery retries only when no message went out.
	RetryAttempts int
	RetryDelay    time.Duration
}

// Service wires the pipeline stages together.
type Service struct {
	cfg        Config
	sources    []domain.Source
	articles   domain.ArticleRepo
	summaries  domain.SummaryRepo
	store      domain.ObjectStore
	generator  domain.Generator
	router     *routing.Router
	mailer     domain.Mailer
	deliveries domain.DeliveryLog
	log        zerolog.Logger
}

func NewService(
	cfg Config,
	sources []domain.Source,
	articles domain.ArticleRepo,
	summaries domain.SummaryRepo,
	store domain.ObjectStore,
	generator domain.Generator,
	router *routing.Router,
	mailer domain.Mailer,
	deliveries domain.DeliveryLog,
	logger zerolog.Logger,
) *Service {
	return &Service{
		cfg:        cfg,
		sources:    sources,
		articles:   articles,
		summaries:  summaries,
		store:      store,
		generator:  generator,
		router:     router,
		mailer:     mailer,
		deliveries: deliveries,
		log:        logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one full pipeline pass for the given nominal hour. The hour
// selects the delivery slot; a degraded crawl (some sources down) still
// produces a digest, and a run with zero valid articles ends successfully
// without synthesizing or mailing anything.
func (s *Service) Run(ctx context.Context, hour int, date time.Time) error {
	runID := uuid.NewString()
	slot := routing.ResolveSlot(hour, s.cfg.MorningHour)
	logger := s.log.With().Str("run_id", runID).Str("slot", string(slot)).Logger()
	logger.Info().Time("date", date).Msg("run started")

	var collected []domain.Article
	err := RunWithRetry(ctx, logger, s.cfg.RetryAttempts, s.cfg.RetryDelay, func(ctx context.Context) error {
		var stageErr error
		collected, stageErr = s.crawl(ctx, logger)
		return stageErr
	})
	if err != nil {
		return s.fail(ctx, logger, StageCrawl, err)
	}

	valid := s.validateStage(logger, collected)
	if len(valid) == 0 {
		logger.Warn().Msg("no valid articles collected, skipping digest")
		metrics.PipelineRunsTotal.WithLabelValues("empty").Inc()
		return nil
	}

	var stored []domain.Article
	err = RunWithRetry(ctx, logger, s.cfg.RetryAttempts, s.cfg.RetryDelay, func(ctx context.Context) error {
		var stageErr error
		stored, stageErr = s.storeStage(ctx, logger, valid)
		return stageErr
	})
	if err != nil {
		return s.fail(ctx, logger, StageStore, err)
	}

	var summary domain.Summary
	err = RunWithRetry(ctx, logger, s.cfg.RetryAttempts, s.cfg.RetryDelay, func(ctx context.Context) error {
		var stageErr error
		summary, stageErr = s.synthesize(ctx, logger, stored)
		return stageErr
	})
	if err != nil {
		return s.fail(ctx, logger, StageSynthesize, err)
	}

	err = RunWithRetry(ctx, logger, s.cfg.RetryAttempts, s.cfg.RetryDelay, func(ctx context.Context) error {
		return s.deliver(ctx, logger, slot, summary)
	})
	if err != nil {
		return s.fail(ctx, logger, StageDeliver, err)
	}

	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	logger.Info().Msg("run finished")
	return nil
}

// crawl harvests all sources concurrently. Individual source failures are
// tolerated; the stage fails only when every source fails.
func (s *Service) crawl(ctx context.Context, logger zerolog.Logger) ([]domain.Article, error) {
	start := time.Now()

	var (
		mu        sync.Mutex
		collected []domain.Article
		failures  int
	)

	var wg sync.WaitGroup
	for _, src := range s.sources {
		wg.Add(1)
		go func(src domain.Source) {
			defer wg.Done()
			articles, err := src.Crawl(ctx, s.cfg.MaxArticles, s.cfg.CrawlDelay)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures++
				logger.Error().Err(err).Str("source", src.Name()).Msg("source crawl failed")
				return
			}
			collected = append(collected, articles...)
			logger.Info().Str("source", src.Name()).Int("articles", len(articles)).Msg("source crawled")
		}(src)
	}
	wg.Wait()

	var err error
	if len(s.sources) > 0 && failures == len(s.sources) {
		err = fmt.Errorf("all %d sources failed", failures)
	}
	metrics.ObserveStage(StageCrawl, start, err)
	if err != nil {
		return nil, err
	}
	if failures > 0 {
		logger.Warn().Int("failed_sources", failures).Msg("running degraded")
	}
	return collected, nil
}

func (s *Service) validateStage(logger zerolog.Logger, collected []domain.Article) []domain.Article {
	start := time.Now()
	valid := validate.Filter(logger, collected)
	metrics.ObserveStage(StageValidate, start, nil)
	logger.Info().Int("collected", len(collected)).Int("valid", len(valid)).Msg("articles validated")
	return valid
}

// storeStage archives raw HTML and upserts each article. Archival failures
// are logged and tolerated; a database failure aborts the stage.
func (s *Service) storeStage(ctx context.Context, logger zerolog.Logger, articles []domain.Article) ([]domain.Article, error) {
	start := time.Now()
	stored := make([]domain.Article, 0, len(articles))

	var stageErr error
	for _, a := range articles {
		if a.RawHTML != "" {
			key, err := s.store.PutHTML(ctx, a.Source, a.URL, a.RawHTML)
			if err != nil {
				logger.Warn().Err(err).Str("url", a.URL).Msg("html archival failed")
			} else {
				a.HTMLObjectKey = key
			}
		}
		a.RawHTML = ""

		id, err := s.articles.UpsertArticle(ctx, a)
		if err != nil {
			stageErr = fmt.Errorf("upsert article %s: %w", a.URL, err)
			break
		}
		a.ID = id
		stored = append(stored, a)
	}

	metrics.ObserveStage(StageStore, start, stageErr)
	if stageErr != nil {
		return nil, stageErr
	}
	logger.Info().Int("stored", len(stored)).Msg("articles persisted")
	return stored, nil
}

func (s *Service) synthesize(ctx context.Context, logger zerolog.Logger, articles []domain.Article) (domain.Summary, error) {
	start := time.Now()

	if s.cfg.SummaryMaxNews > 0 && len(articles) > s.cfg.SummaryMaxNews {
		articles = articles[:s.cfg.SummaryMaxNews]
	}

	summary, err := s.generator.Generate(ctx, articles)
	if err != nil {
		metrics.ObserveStage(StageSynthesize, start, err)
		return domain.Summary{}, fmt.Errorf("generate summary: %w", err)
	}

	key, err := s.store.PutSummary(ctx, summary.Date, summary.Text)
	if err != nil {
		logger.Warn().Err(err).Msg("summary archival failed")
	} else {
		summary.ObjectKey = key
	}

	id, err := s.summaries.UpsertSummary(ctx, summary)
	metrics.ObserveStage(StageSynthesize, start, err)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("upsert summary: %w", err)
	}
	summary.ID = id

	logger.Info().Str("title", summary.Title).Int("news_count", summary.NewsCount).Msg("summary generated")
	return summary, nil
}

// deliver resolves the recipient set for the slot and mails each one,
// logging every attempt. The stage fails only when no message at all could
// be sent to a non-empty recipient set.
func (s *Service) deliver(ctx context.Context, logger zerolog.Logger, slot domain.Slot, summary domain.Summary) error {
	start := time.Now()

	recipients, err := s.router.Resolve(ctx, slot, s.cfg.Recipients)
	if err != nil {
		metrics.ObserveStage(StageDeliver, start, err)
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		metrics.ObserveStage(StageDeliver, start, nil)
		logger.Info().Msg("no recipients for this slot")
		return nil
	}

	var sent int
	for _, recipient := range recipients {
		record := domain.DeliveryRecord{
			SummaryDate: summary.Date,
			Recipient:   recipient,
			Status:      domain.DeliverySent,
			CreatedAt:   time.Now(),
		}
		if err := s.mailer.SendDigest(ctx, recipient, summary); err != nil {
			logger.Error().Err(err).Str("recipient", recipient).Msg("digest delivery failed")
			record.Status = domain.DeliveryFailed
			record.Error = err.Error()
		} else {
			sent++
		}
		if err := s.deliveries.LogDelivery(ctx, record); err != nil {
			logger.Warn().Err(err).Str("recipient", recipient).Msg("delivery log write failed")
		}
	}

	var stageErr error
	if sent == 0 {
		stageErr = fmt.Errorf("all %d deliveries failed", len(recipients))
	}
	metrics.ObserveStage(StageDeliver, start, stageErr)
	if stageErr != nil {
		return stageErr
	}
	logger.Info().Int("sent", sent).Int("recipients", len(recipients)).Msg("digest delivered")
	return nil
}

// fail records the terminal state and sends one operator alert. Alert
// delivery errors are swallowed so they never mask the original failure.
func (s *Service) fail(ctx context.Context, logger zerolog.Logger, stage string, err error) error {
	metrics.PipelineRunsTotal.WithLabelValues("failure").Inc()
	logger.Error().Err(err).Str("stage", stage).Msg("run failed")
	if alertErr := s.mailer.SendFailureAlert(ctx, s.cfg.Recipients, stage, err.Error()); alertErr != nil {
		logger.Error().Err(alertErr).Msg("failure alert could not be sent")
	}
	return fmt.Errorf("%s: %w", stage, err)
}
