package crawler

import (
	"io"
	"net/http"
	"regexp"

	"news-digest/internal/crawler/extract"
)

// SourceConfig describes one portal's homepage and markup heuristics.
type SourceConfig struct {
	Name     string
	BaseURL  string
	Patterns extract.Patterns
}

// Sources returns the configured portals. Adding a portal means adding an
// entry here with its listing and href heuristics.
func Sources() []SourceConfig {
	return []SourceConfig{
		{
			Name:    "MoneyTimes",
			BaseURL: "https://www.moneytimes.com.br",
			Patterns: extract.Patterns{
				Listing:     regexp.MustCompile(`(?i)(post|article|noticia)`),
				ArticleHref: regexp.MustCompile(`moneytimes\.com\.br/.*\d{4}`),
				ExcludeHref: []string{"/categoria/", "/tag/", "/autor/", "#"},
			},
		},
		{
			Name:    "IstoeDinheiro",
			BaseURL: "https://istoedinheiro.com.br",
			Patterns: extract.Patterns{
				Listing:     regexp.MustCompile(`(?i)(post|article|noticia|card)`),
				ArticleHref: regexp.MustCompile(`istoedinheiro\.com\.br/.+`),
				ExcludeHref: []string{"/categoria/", "/tag/", "/autor/", "/page/", "#"},
			},
		},
	}
}

func readBody(resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
