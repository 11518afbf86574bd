package mail

import (
	"fmt"
	"html"
	"strings"
	"time"

	"news-digest/internal/domain"
)

// RenderDigestHTML converts the markdown-like digest text into the HTML
// email body. Supported constructs mirror what the generator emits: #/##
// section headers, dash bullets, paragraphs.
func RenderDigestHTML(summary domain.Summary, links RecipientLinks) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto; padding: 20px;">`)
	b.WriteString(fmt.Sprintf(`<h1 style="color: #111827;">%s</h1>`, html.EscapeString(summary.Title)))
	b.WriteString(fmt.Sprintf(
		`<p style="color: #6b7280;">%s — %d notícias — tema: %s</p>`,
		summary.Date.Format("02/01/2006"), summary.NewsCount, html.EscapeString(summary.Theme),
	))
	b.WriteString(renderBody(summary.Text))
	b.WriteString(fmt.Sprintf(
		`<hr style="margin-top: 32px;"><p style="font-size: 12px; color: #9ca3af;"><a href="%s">Alterar preferências</a> · <a href="%s">Cancelar assinatura</a></p>`,
		html.EscapeString(links.Preferences), html.EscapeString(links.Unsubscribe),
	))
	b.WriteString("</body></html>")
	return b.String()
}

// RenderFailureHTML builds the operator alert body for a failed run.
func RenderFailureHTML(stage, detail string, at time.Time) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; padding: 20px;">`)
	b.WriteString(`<h2 style="color: #d9534f;">⚠️ Falha no Pipeline de Notícias</h2>`)
	b.WriteString(fmt.Sprintf(`<p><strong>Estágio:</strong> %s</p>`, html.EscapeString(stage)))
	b.WriteString(fmt.Sprintf(`<p><strong>Data/Hora:</strong> %s</p>`, at.Format("02/01/2006 15:04:05")))
	b.WriteString(fmt.Sprintf(
		`<div style="background-color: #f8d7da; border-radius: 4px; padding: 15px;"><pre style="white-space: pre-wrap; margin: 0;">%s</pre></div>`,
		html.EscapeString(detail),
	))
	b.WriteString("</body></html>")
	return b.String()
}

func renderBody(text string) string {
	var (
		b      strings.Builder
		inList bool
	)
	closeList := func() {
		if inList {
			b.WriteString("</ul>")
			inList = false
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || trimmed == "---":
			closeList()
		case strings.HasPrefix(trimmed, "## "):
			closeList()
			b.WriteString(fmt.Sprintf(`<h3 style="color: #1f2937;">%s</h3>`, inline(strings.TrimPrefix(trimmed, "## "))))
		case strings.HasPrefix(trimmed, "# "):
			closeList()
			b.WriteString(fmt.Sprintf(`<h2 style="color: #111827;">%s</h2>`, inline(strings.TrimPrefix(trimmed, "# "))))
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "• "):
			if !inList {
				b.WriteString("<ul>")
				inList = true
			}
			item := strings.TrimPrefix(trimmed, "- ")
			item = strings.TrimPrefix(item, "• ")
			b.WriteString("<li>" + inline(item) + "</li>")
		default:
			closeList()
			b.WriteString("<p>" + inline(trimmed) + "</p>")
		}
	}
	closeList()
	return b.String()
}

// inline escapes a text line and converts **bold** spans.
func inline(text string) string {
	escaped := html.EscapeString(strings.TrimSpace(text))
	for strings.Count(escaped, "**") >= 2 {
		escaped = strings.Replace(escaped, "**", "<strong>", 1)
		escaped = strings.Replace(escaped, "**", "</strong>", 1)
	}
	return escaped
}
