// Package storage archives raw payloads in MinIO. Archival only: callers
// treat a failed put as a logged degradation, never a stage failure.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"news-digest/internal/domain"
	"news-digest/internal/infra/metrics"
)

// Config holds the MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Minio implements domain.ObjectStore.
type Minio struct {
	client *miniogo.Client
	bucket string
	log    zerolog.Logger
	now    func() time.Time
}

var _ domain.ObjectStore = (*Minio)(nil)

// NewMinio creates the client and ensures the bucket exists.
func NewMinio(ctx context.Context, cfg Config, logger zerolog.Logger) (*Minio, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("storage: created bucket")
	}

	return &Minio{client: client, bucket: cfg.Bucket, log: logger, now: time.Now}, nil
}

// PutHTML archives one article page under html/<source>/<ts>_<hash>.html.
func (m *Minio) PutHTML(ctx context.Context, source, url, html string) (string, error) {
	timestamp := m.now().UTC().Format("20060102_150405")
	key := fmt.Sprintf("html/%s/%s_%s.html", source, timestamp, shortHash(url))
	if err := m.put(ctx, key, html, "text/html"); err != nil {
		return "", err
	}
	return key, nil
}

// PutSummary archives the digest text under summaries/<date>.txt.
func (m *Minio) PutSummary(ctx context.Context, date time.Time, text string) (string, error) {
	key := fmt.Sprintf("summaries/%s.txt", date.Format("2006-01-02"))
	if err := m.put(ctx, key, text, "text/plain"); err != nil {
		return "", err
	}
	return key, nil
}

func (m *Minio) put(ctx context.Context, key, payload, contentType string) error {
	start := time.Now()
	_, err := m.client.PutObject(ctx, m.bucket, key, strings.NewReader(payload), int64(len(payload)), miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	metrics.ObserveNetworkRequest("minio", "put_object", m.bucket, start, err)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	m.log.Debug().Str("key", key).Msg("storage: object uploaded")
	return nil
}

func shortHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:4])
}
