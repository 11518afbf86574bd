package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"news-digest/internal/crawler/extract"
)

func articlePage(title string) string {
	body := strings.Repeat("O banco central manteve a taxa de juros nesta reunião. ", 4)
	return fmt.Sprintf(`<html><body>
		<h1 class="entry-title">%s</h1>
		<div class="article-content"><p>%s</p></div>
	</body></html>`, title, body)
}

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><div class="post-list">
			<a href="/juros-mantidos">Juros</a>
			<a href="/dolar-cai">Dólar</a>
			<a href="/curto">Curto</a>
			<a href="/categoria/economia">Categoria</a>
		</div></body></html>`)
	})
	mux.HandleFunc("/juros-mantidos", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articlePage("Juros mantidos"))
	})
	mux.HandleFunc("/dolar-cai", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articlePage("Dólar cai"))
	})
	mux.HandleFunc("/curto", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Curta</h1><article><p>Só isto.</p></article></body></html>`)
	})
	return httptest.NewServer(mux)
}

func testConfig(baseURL string) SourceConfig {
	return SourceConfig{
		Name:    "portal-teste",
		BaseURL: baseURL,
		Patterns: extract.Patterns{
			Listing:     regexp.MustCompile(`(?i)post`),
			ExcludeHref: []string{"/categoria/"},
		},
	}
}

func TestCrawl(t *testing.T) {
	srv := newPortal(t)
	defer srv.Close()

	c := New(testConfig(srv.URL), srv.Client(), zerolog.Nop())
	articles, err := c.Crawl(context.Background(), 15, 0)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	// Three discovered urls; the short article is rejected at extraction.
	if len(articles) != 2 {
		t.Fatalf("got %d articles: %+v", len(articles), articles)
	}
	if articles[0].Title != "Juros mantidos" || articles[1].Title != "Dólar cai" {
		t.Errorf("titles = %q, %q", articles[0].Title, articles[1].Title)
	}
	for _, a := range articles {
		if a.Source != "portal-teste" {
			t.Errorf("source = %q", a.Source)
		}
		if a.RawHTML == "" {
			t.Errorf("raw html not carried for %s", a.URL)
		}
		if a.CollectedAt.IsZero() {
			t.Errorf("collected at not set for %s", a.URL)
		}
	}
}

func TestCrawlRespectsMaxArticles(t *testing.T) {
	srv := newPortal(t)
	defer srv.Close()

	c := New(testConfig(srv.URL), srv.Client(), zerolog.Nop())
	articles, err := c.Crawl(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
}

func TestCrawlHomepageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), srv.Client(), zerolog.Nop())
	if _, err := c.Crawl(context.Background(), 15, 0); err == nil {
		t.Fatal("expected error on homepage failure")
	}
}

func TestCrawlCancelledBetweenRequests(t *testing.T) {
	srv := newPortal(t)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testConfig(srv.URL), srv.Client(), zerolog.Nop())
	if _, err := c.Crawl(ctx, 15, 0); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSourcesConfigured(t *testing.T) {
	sources := Sources()
	if len(sources) != 2 {
		t.Fatalf("got %d sources", len(sources))
	}
	for _, s := range sources {
		if s.Name == "" || s.BaseURL == "" || s.Patterns.Listing == nil {
			t.Errorf("incomplete source config: %+v", s.Name)
		}
	}
}
