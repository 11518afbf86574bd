package domain

import (
	"context"
	"errors"
	"time"
)

// ErrPreferenceNotFound is returned when a recipient never saved settings.
var ErrPreferenceNotFound = errors.New("preference not found")

// Source harvests articles from one news portal.
type Source interface {
	Name() string
	Crawl(ctx context.Context, maxArticles int, delay time.Duration) ([]Article, error)
}

// ArticleRepo persists harvested articles with insert-or-update semantics.
type ArticleRepo interface {
	UpsertArticle(ctx context.Context, article Article) (int64, error)
}

// SummaryRepo persists the daily digest, one row per calendar date.
type SummaryRepo interface {
	UpsertSummary(ctx context.Context, summary Summary) (int64, error)
	GetSummaryByDate(ctx context.Context, date time.Time) (Summary, error)
}

// PreferenceRepo reads and writes subscriber delivery settings.
type PreferenceRepo interface {
	GetPreference(ctx context.Context, email string) (Preference, error)
	UpsertPreference(ctx context.Context, pref Preference) error
}

// DeliveryLog appends one row per send attempt, never updates.
type DeliveryLog interface {
	LogDelivery(ctx context.Context, record DeliveryRecord) error
}

// ObjectStore archives raw payloads. Archival only: a failed put must not
// fail the calling stage.
type ObjectStore interface {
	PutHTML(ctx context.Context, source, url, html string) (string, error)
	PutSummary(ctx context.Context, date time.Time, text string) (string, error)
}

// Generator turns validated articles into a digest title and body.
type Generator interface {
	Generate(ctx context.Context, articles []Article) (Summary, error)
}

// Mailer delivers one personalized message per recipient.
type Mailer interface {
	SendDigest(ctx context.Context, recipient string, summary Summary) error
	SendFailureAlert(ctx context.Context, recipients []string, stage, detail string) error
}

// RunLock prevents the same slot from being executed twice on one date.
type RunLock interface {
	Acquire(ctx context.Context, date time.Time, slot Slot, ttl time.Duration) (bool, error)
}
