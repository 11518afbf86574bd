// Package summarizer synthesizes the daily digest from validated articles
// through an OpenAI-compatible chat-completions endpoint.
package summarizer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"news-digest/internal/domain"
	openai "news-digest/internal/infra/openai"
)

// DefaultTitle is used when the model reply carries no title marker.
const DefaultTitle = "Resumo Diário de Notícias"

const maxContextContent = 500

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI implements domain.Generator.
type OpenAI struct {
	client      chatClient
	model       string
	theme       string
	maxArticles int
	timeout     time.Duration
	now         func() time.Time
}

var _ domain.Generator = (*OpenAI)(nil)

// NewOpenAI creates the digest generator.
func NewOpenAI(client chatClient, model, theme string, maxArticles int, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	if maxArticles <= 0 {
		maxArticles = 20
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{client: client, model: model, theme: theme, maxArticles: maxArticles, timeout: timeout, now: time.Now}
}

// Generate builds the bounded context, invokes the model, and parses the
// structured reply. An empty reply is an error; a reply without a title
// marker falls back to DefaultTitle.
func (o *OpenAI) Generate(ctx context.Context, articles []domain.Article) (domain.Summary, error) {
	if len(articles) == 0 {
		return domain.Summary{}, fmt.Errorf("no articles to summarize")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.7,
		MaxTokens:   1500,
		Messages: []openai.ChatMessage{
			{
				Role:    openai.RoleSystem,
				Content: "Você é um assistente especializado em resumir notícias para executivos.",
			},
			{
				Role:    openai.RoleUser,
				Content: o.buildPrompt(o.buildContext(articles)),
			},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Summary{}, fmt.Errorf("openai completion: empty response")
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return domain.Summary{}, fmt.Errorf("openai completion: empty response")
	}

	title, text := ParseTitledSummary(raw)
	now := o.now().UTC()
	return domain.Summary{
		Date:        now.Truncate(24 * time.Hour),
		Title:       title,
		Text:        text,
		NewsCount:   len(articles),
		Theme:       o.theme,
		GeneratedAt: now,
	}, nil
}

// buildContext formats the newest articles, most recent first, truncating
// each body to keep the prompt bounded.
func (o *OpenAI) buildContext(articles []domain.Article) string {
	sorted := make([]domain.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	if len(sorted) > o.maxArticles {
		sorted = sorted[:o.maxArticles]
	}

	parts := make([]string, 0, len(sorted))
	for i, article := range sorted {
		content := article.Content
		if len(content) > maxContextContent {
			content = content[:maxContextContent] + "..."
		}
		parts = append(parts, fmt.Sprintf(
			"[Notícia %d]\nPortal: %s\nData: %s\nTítulo: %s\nConteúdo: %s\n",
			i+1, article.Source, article.PublishedAt.Format("2006-01-02"), article.Title, content,
		))
	}
	return strings.Join(parts, "\n---\n")
}

func (o *OpenAI) buildPrompt(newsContext string) string {
	return fmt.Sprintf(`Você é um assistente especializado em análise de notícias para executivos e gestores.

Sua tarefa é criar um resumo executivo das principais notícias do dia no tema: %s.

NOTÍCIAS DO DIA:
%s

INSTRUÇÕES:
1. PRIMEIRO: Crie um título criativo e chamativo que capture o principal tema do dia
2. Crie um resumo executivo profissional e conciso
3. Organize as informações por temas relevantes
4. Destaque os pontos mais importantes e suas implicações
5. Use bullet points para facilitar a leitura
6. Mantenha um tom objetivo e informativo
7. Limite o resumo a aproximadamente 500-700 palavras

FORMATO DO RESUMO:
TITULO: [Seu título criativo aqui - máximo 60 caracteres]

# Resumo de Notícias - %s

## Destaques do Dia
[Principais acontecimentos em 2-3 bullet points]

## [Tema 1]
[Resumo das notícias relacionadas]

## Implicações e Tendências
[Análise das implicações e tendências observadas]

---
Elabore o resumo agora:`, o.theme, newsContext, titleCase(o.theme))
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ParseTitledSummary splits a model reply into title and body. The title is
// taken from a leading "TITULO:"/"TÍTULO:" line with markdown emphasis
// stripped; without the marker the body is returned whole under
// DefaultTitle.
func ParseTitledSummary(raw string) (string, string) {
	lines := strings.SplitN(raw, "\n", 2)
	first := strings.TrimSpace(lines[0])
	clean := strings.ReplaceAll(first, "**", "")
	clean = strings.ReplaceAll(clean, "*", "")
	clean = strings.TrimSpace(clean)

	upper := strings.ToUpper(clean)
	if !strings.Contains(upper, "TÍTULO:") && !strings.Contains(upper, "TITULO:") {
		return DefaultTitle, raw
	}

	title := clean
	if idx := strings.Index(clean, ":"); idx >= 0 {
		title = strings.TrimSpace(clean[idx+1:])
	}
	if len(title) <= 3 {
		title = DefaultTitle
	}

	body := raw
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}
	return title, body
}
