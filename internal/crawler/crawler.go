// Package crawler drives the extraction engine against one news portal,
// applying the portal's politeness policy.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"news-digest/internal/crawler/extract"
	"news-digest/internal/domain"
	"news-digest/internal/infra/metrics"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Crawler implements domain.Source for one configured portal.
type Crawler struct {
	cfg    SourceConfig
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

var _ domain.Source = (*Crawler)(nil)

// New creates a portal crawler. A nil client gets a default with a 10s
// timeout.
func New(cfg SourceConfig, client *http.Client, logger zerolog.Logger) *Crawler {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Crawler{
		cfg:    cfg,
		client: client,
		log:    logger.With().Str("source", cfg.Name).Logger(),
		now:    time.Now,
	}
}

// Name identifies the source on stored articles.
func (c *Crawler) Name() string { return c.cfg.Name }

// Crawl fetches the homepage, discovers article URLs, and harvests each one
// in discovery order. Per-article failures are logged and skipped; only a
// homepage failure is returned to the caller. The loop is deliberately
// serial: the delay between requests is the portal's politeness budget.
func (c *Crawler) Crawl(ctx context.Context, maxArticles int, delay time.Duration) ([]domain.Article, error) {
	homeHTML, err := c.fetchHTML(ctx, c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch homepage %s: %w", c.cfg.BaseURL, err)
	}
	homeDoc, err := goquery.NewDocumentFromReader(strings.NewReader(homeHTML))
	if err != nil {
		return nil, fmt.Errorf("parse homepage: %w", err)
	}

	urls := extract.DiscoverURLs(homeDoc, c.cfg.BaseURL, c.cfg.Patterns)
	if maxArticles > 0 && len(urls) > maxArticles {
		urls = urls[:maxArticles]
	}
	c.log.Info().Int("urls", len(urls)).Msg("crawler: discovered article urls")

	articles := make([]domain.Article, 0, len(urls))
	for i, url := range urls {
		if article, ok := c.crawlArticle(ctx, url); ok {
			articles = append(articles, article)
		}
		if i < len(urls)-1 {
			select {
			case <-ctx.Done():
				return articles, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	metrics.ArticlesCollected.WithLabelValues(c.cfg.Name).Add(float64(len(articles)))
	c.log.Info().Int("articles", len(articles)).Msg("crawler: finished")
	return articles, nil
}

func (c *Crawler) crawlArticle(ctx context.Context, url string) (domain.Article, bool) {
	html, err := c.fetchHTML(ctx, url)
	if err != nil {
		c.log.Warn().Err(err).Str("url", url).Msg("crawler: fetch failed, skipping")
		return domain.Article{}, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		c.log.Warn().Err(err).Str("url", url).Msg("crawler: parse failed, skipping")
		return domain.Article{}, false
	}

	collectedAt := c.now().UTC()
	fragment, err := extract.ExtractArticle(doc, collectedAt)
	if err != nil {
		c.log.Warn().Err(err).Str("url", url).Msg("crawler: extraction rejected, skipping")
		return domain.Article{}, false
	}

	return domain.Article{
		URL:          url,
		Source:       c.cfg.Name,
		Title:        fragment.Title,
		Content:      fragment.Content,
		PublishedAt:  fragment.PublishedAt,
		DateInferred: fragment.DateInferred,
		CollectedAt:  collectedAt,
		RawHTML:      html,
	}, true
}

func (c *Crawler) fetchHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ObserveNetworkRequest("crawler", "fetch", c.cfg.Name, start, err)
	if err != nil {
		metrics.CrawlErrors.WithLabelValues(c.cfg.Name).Inc()
		return "", fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.CrawlErrors.WithLabelValues(c.cfg.Name).Inc()
		return "", fmt.Errorf("%s returned %s", url, resp.Status)
	}

	body, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
