// Package repo implements the persistence contracts on top of pgxpool.
// Writes are idempotent: articles upsert on url, summaries upsert on date,
// delivery records append only.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"news-digest/internal/domain"
	"news-digest/internal/infra/metrics"
)

// Postgres implements the repositories over one connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ArticleRepo    = (*Postgres)(nil)
	_ domain.SummaryRepo    = (*Postgres)(nil)
	_ domain.PreferenceRepo = (*Postgres)(nil)
	_ domain.DeliveryLog    = (*Postgres)(nil)
)

// NewPostgres creates the database adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// UpsertArticle inserts or updates one article keyed by url. A rerun with
// the same url overwrites every non-key field and never duplicates the row.
func (p *Postgres) UpsertArticle(ctx context.Context, article domain.Article) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var objectKey sql.NullString
	if article.HTMLObjectKey != "" {
		objectKey = sql.NullString{String: article.HTMLObjectKey, Valid: true}
	}

	start := time.Now()
	var id int64
	err := p.pool.QueryRow(ctx, `
INSERT INTO news_articles (url, source, title, content, published_at, date_inferred, html_object_key, collected_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (url) DO UPDATE
SET title = EXCLUDED.title,
    content = EXCLUDED.content,
    published_at = EXCLUDED.published_at,
    date_inferred = EXCLUDED.date_inferred,
    html_object_key = EXCLUDED.html_object_key,
    collected_at = EXCLUDED.collected_at
RETURNING id
`, article.URL, article.Source, article.Title, article.Content, article.PublishedAt, article.DateInferred, objectKey, article.CollectedAt).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "articles_upsert", "news_articles", start, err)
	if err != nil {
		return 0, fmt.Errorf("upsert article %s: %w", article.URL, err)
	}
	return id, nil
}

// UpsertSummary inserts or updates the digest for its calendar date.
func (p *Postgres) UpsertSummary(ctx context.Context, summary domain.Summary) (int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var objectKey sql.NullString
	if summary.ObjectKey != "" {
		objectKey = sql.NullString{String: summary.ObjectKey, Valid: true}
	}

	start := time.Now()
	var id int64
	err := p.pool.QueryRow(ctx, `
INSERT INTO news_summaries (summary_date, title, summary_text, news_count, theme, object_key)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (summary_date) DO UPDATE
SET title = EXCLUDED.title,
    summary_text = EXCLUDED.summary_text,
    news_count = EXCLUDED.news_count,
    theme = EXCLUDED.theme,
    object_key = EXCLUDED.object_key
RETURNING id
`, summary.Date, summary.Title, summary.Text, summary.NewsCount, summary.Theme, objectKey).Scan(&id)
	metrics.ObserveNetworkRequest("postgres", "summaries_upsert", "news_summaries", start, err)
	if err != nil {
		return 0, fmt.Errorf("upsert summary %s: %w", summary.Date.Format("2006-01-02"), err)
	}
	return id, nil
}

// GetSummaryByDate returns the stored digest for a date.
func (p *Postgres) GetSummaryByDate(ctx context.Context, date time.Time) (domain.Summary, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var (
		summary   domain.Summary
		theme     sql.NullString
		objectKey sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, summary_date, title, summary_text, news_count, theme, object_key, generated_at
FROM news_summaries WHERE summary_date = $1
`, date).Scan(&summary.ID, &summary.Date, &summary.Title, &summary.Text, &summary.NewsCount, &theme, &objectKey, &summary.GeneratedAt)
	metrics.ObserveNetworkRequest("postgres", "summaries_get", "news_summaries", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Summary{}, fmt.Errorf("summary for %s not found", date.Format("2006-01-02"))
	}
	if err != nil {
		return domain.Summary{}, err
	}
	summary.Theme = theme.String
	summary.ObjectKey = objectKey.String
	return summary, nil
}

// GetPreference returns the delivery settings for one subscriber.
// domain.ErrPreferenceNotFound is a valid, meaningful outcome: such
// recipients get the morning delivery only.
func (p *Postgres) GetPreference(ctx context.Context, email string) (domain.Preference, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var pref domain.Preference
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT email, subscribed, preferred_slot, updated_at
FROM email_preferences WHERE email = $1
`, email).Scan(&pref.Email, &pref.Subscribed, &pref.PreferredSlot, &pref.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "preferences_get", "email_preferences", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Preference{}, domain.ErrPreferenceNotFound
	}
	if err != nil {
		return domain.Preference{}, fmt.Errorf("get preference: %w", err)
	}
	return pref, nil
}

// UpsertPreference saves a subscriber's settings; used only by the
// preference web surface, never by the pipeline.
func (p *Postgres) UpsertPreference(ctx context.Context, pref domain.Preference) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO email_preferences (email, subscribed, preferred_slot, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (email) DO UPDATE
SET subscribed = EXCLUDED.subscribed,
    preferred_slot = EXCLUDED.preferred_slot,
    updated_at = now()
`, pref.Email, pref.Subscribed, pref.PreferredSlot)
	metrics.ObserveNetworkRequest("postgres", "preferences_upsert", "email_preferences", start, err)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// LogDelivery appends one send-attempt row. Rows are never updated.
func (p *Postgres) LogDelivery(ctx context.Context, record domain.DeliveryRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var errDetail sql.NullString
	if record.Error != "" {
		errDetail = sql.NullString{String: record.Error, Valid: true}
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO delivery_log (summary_date, recipient, status, error_detail)
VALUES ($1, $2, $3, $4)
`, record.SummaryDate, record.Recipient, record.Status, errDetail)
	metrics.ObserveNetworkRequest("postgres", "delivery_log_insert", "delivery_log", start, err)
	if err != nil {
		return fmt.Errorf("log delivery to %s: %w", record.Recipient, err)
	}
	return nil
}
