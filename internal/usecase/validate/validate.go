// Package validate gates harvested articles before persistence.
package validate

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"news-digest/internal/domain"
)

// MinContentLength is the minimum accepted body length in bytes.
const MinContentLength = 100

var (
	ErrEmptyURL     = errors.New("empty url")
	ErrInvalidURL   = errors.New("url is not absolute http(s)")
	ErrEmptyTitle   = errors.New("empty title")
	ErrShortContent = errors.New("content too short")
)

// Check reports whether one article is publishable.
func Check(a domain.Article) error {
	url := strings.TrimSpace(a.URL)
	if url == "" {
		return ErrEmptyURL
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ErrInvalidURL
	}
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if len(strings.TrimSpace(a.Content)) < MinContentLength {
		return ErrShortContent
	}
	return nil
}

// Filter drops invalid articles, logging each rejection. Order of the
// surviving articles is preserved.
func Filter(logger zerolog.Logger, articles []domain.Article) []domain.Article {
	valid := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if err := Check(a); err != nil {
			logger.Warn().
				Str("url", a.URL).
				Str("source", a.Source).
				Err(err).
				Msg("validate: rejected article")
			continue
		}
		valid = append(valid, a)
	}
	return valid
}
