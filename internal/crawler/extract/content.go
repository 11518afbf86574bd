package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ExtractArticle runs the title, body, and date cascades against one article
// page. It returns the fragment or a typed error naming the failing step;
// partial results are never returned.
func ExtractArticle(doc *goquery.Document, collectedAt time.Time) (Fragment, error) {
	title := extractTitle(doc)
	if title == "" {
		return Fragment{}, ErrNoTitle
	}

	content := extractContent(doc)
	if len(content) < MinContentLength {
		return Fragment{}, ErrShortContent
	}

	published, inferred := extractDate(doc, collectedAt)

	return Fragment{
		Title:        title,
		Content:      content,
		PublishedAt:  published,
		DateInferred: inferred,
	}, nil
}

// extractTitle walks the title cascade: title-classed h1, any h1, then page
// metadata. First non-empty text wins.
func extractTitle(doc *goquery.Document) string {
	if title := findByClass(doc, "h1", titleClassPattern); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title := metaContent(doc, `meta[property="og:title"]`); title != "" {
		return title
	}
	return metaContent(doc, `meta[name="twitter:title"]`)
}

// extractContent walks the body cascade and returns the paragraph text of
// the first container that yields anything, blank-line separated. No merging
// across strategies.
func extractContent(doc *goquery.Document) string {
	candidates := []func() *goquery.Selection{
		func() *goquery.Selection { return selectionByClass(doc, "div", contentClassPattern) },
		func() *goquery.Selection { return doc.Find("article").First() },
		func() *goquery.Selection { return selectionByClass(doc, "div", postClassPattern) },
		func() *goquery.Selection { return doc.Find(`[itemprop="articleBody"]`).First() },
	}

	for _, candidate := range candidates {
		container := candidate()
		if container == nil || container.Length() == 0 {
			continue
		}
		stripJunk(container)
		if text := paragraphText(container); text != "" {
			return text
		}
	}
	return ""
}

// stripJunk removes script/style/navigation subtrees and ad-pattern nodes
// from the chosen container before text extraction.
func stripJunk(container *goquery.Selection) {
	container.Find("script, style, iframe, aside, nav, header, footer").Remove()
	container.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		if junkClassPattern.MatchString(class) {
			sel.Remove()
		}
	})
}

func paragraphText(container *goquery.Selection) string {
	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}

// extractDate walks the date cascade. When nothing parses the collection
// instant is used and the fragment is flagged as inferred so consumers can
// tell it apart from a real timestamp.
func extractDate(doc *goquery.Document, collectedAt time.Time) (time.Time, bool) {
	var candidates []string

	if sel := doc.Find("time[datetime]").First(); sel.Length() > 0 {
		if dt, ok := sel.Attr("datetime"); ok && dt != "" {
			candidates = append(candidates, dt)
		} else {
			candidates = append(candidates, sel.Text())
		}
	}
	if content := metaContent(doc, `meta[property="article:published_time"]`); content != "" {
		candidates = append(candidates, content)
	}
	if content := metaContent(doc, `meta[name="publishdate"]`); content != "" {
		candidates = append(candidates, content)
	}
	if sel := selectionByClass(doc, "span", dateClassPattern); sel != nil {
		candidates = append(candidates, sel.Text())
	}

	for _, candidate := range candidates {
		if parsed, ok := ParseDate(candidate); ok {
			return parsed, false
		}
	}
	return collectedAt, true
}

func findByClass(doc *goquery.Document, tag string, pattern *regexp.Regexp) string {
	if sel := selectionByClass(doc, tag, pattern); sel != nil {
		return strings.TrimSpace(sel.Text())
	}
	return ""
}

func selectionByClass(doc *goquery.Document, tag string, pattern *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		if pattern.MatchString(class) {
			found = sel
			return false
		}
		return true
	})
	return found
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
