package extract

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var collectedAt = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func longParagraph() string {
	return strings.Repeat("O mercado financeiro reagiu à decisão. ", 5)
}

func TestExtractArticleComplete(t *testing.T) {
	html := `<html><head>
		<meta property="article:published_time" content="2024-03-14T18:00:00Z">
	</head><body>
		<h1 class="entry-title">Selic mantida em 10,5%</h1>
		<div class="article-content">
			<script>var x = 1;</script>
			<div class="related-posts"><p>Leia também: outra notícia</p></div>
			<p>` + longParagraph() + `</p>
			<p>Segundo parágrafo do texto.</p>
		</div>
	</body></html>`

	fragment, err := ExtractArticle(parseHTML(t, html), collectedAt)
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if fragment.Title != "Selic mantida em 10,5%" {
		t.Errorf("title = %q", fragment.Title)
	}
	if strings.Contains(fragment.Content, "var x") {
		t.Error("script text leaked into content")
	}
	if strings.Contains(fragment.Content, "Leia também") {
		t.Error("related block leaked into content")
	}
	if !strings.Contains(fragment.Content, "Segundo parágrafo") {
		t.Errorf("content missing paragraph: %q", fragment.Content)
	}
	if !strings.Contains(fragment.Content, "\n\n") {
		t.Error("paragraphs not blank-line separated")
	}
	want := time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC)
	if !fragment.PublishedAt.Equal(want) {
		t.Errorf("published = %v, want %v", fragment.PublishedAt, want)
	}
	if fragment.DateInferred {
		t.Error("date flagged inferred despite meta timestamp")
	}
}

func TestExtractArticleTitleFallbacks(t *testing.T) {
	// No h1 anywhere: og:title is the next strategy.
	html := `<html><head>
		<meta property="og:title" content="Dólar fecha em queda">
	</head><body>
		<article><p>` + longParagraph() + `</p></article>
	</body></html>`

	fragment, err := ExtractArticle(parseHTML(t, html), collectedAt)
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if fragment.Title != "Dólar fecha em queda" {
		t.Errorf("title = %q", fragment.Title)
	}
}

func TestExtractArticleNoTitle(t *testing.T) {
	html := `<html><body><article><p>` + longParagraph() + `</p></article></body></html>`

	_, err := ExtractArticle(parseHTML(t, html), collectedAt)
	if !errors.Is(err, ErrNoTitle) {
		t.Fatalf("err = %v, want ErrNoTitle", err)
	}
}

func TestExtractArticleShortContent(t *testing.T) {
	html := `<html><body>
		<h1>Título presente</h1>
		<article><p>Texto curto demais.</p></article>
	</body></html>`

	_, err := ExtractArticle(parseHTML(t, html), collectedAt)
	if !errors.Is(err, ErrShortContent) {
		t.Fatalf("err = %v, want ErrShortContent", err)
	}
}

func TestExtractArticleInferredDate(t *testing.T) {
	html := `<html><body>
		<h1>Sem data publicada</h1>
		<article><p>` + longParagraph() + `</p></article>
	</body></html>`

	fragment, err := ExtractArticle(parseHTML(t, html), collectedAt)
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if !fragment.DateInferred {
		t.Error("expected inferred date flag")
	}
	if !fragment.PublishedAt.Equal(collectedAt) {
		t.Errorf("published = %v, want collection instant", fragment.PublishedAt)
	}
}

func TestExtractArticleUnparseableDateFallsBack(t *testing.T) {
	html := `<html><body>
		<h1>Data ilegível</h1>
		<span class="post-date">ontem à noite</span>
		<article><p>` + longParagraph() + `</p></article>
	</body></html>`

	fragment, err := ExtractArticle(parseHTML(t, html), collectedAt)
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if !fragment.DateInferred {
		t.Error("expected inferred date flag for unparseable date")
	}
}
