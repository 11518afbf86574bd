package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverURLs applies the source's listing heuristics to a homepage
// document and returns normalized, deduplicated candidate article URLs in
// first-seen order, capped at MaxDiscoveredURLs.
func DiscoverURLs(doc *goquery.Document, baseURL string, p Patterns) []string {
	var urls []string

	doc.Find("article, div").Each(func(_ int, container *goquery.Selection) {
		class, _ := container.Attr("class")
		node := container.Get(0)
		if node.Data != "article" && (p.Listing == nil || !p.Listing.MatchString(class)) {
			return
		}
		container.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if href == "" {
				return
			}
			full := NormalizeURL(href, baseURL)
			if !looksLikeArticle(full, baseURL, p) {
				return
			}
			urls = appendUnique(urls, full)
		})
	})

	// Fallback: no listing container matched, scan every anchor for a
	// dated-article href.
	if len(urls) == 0 && p.ArticleHref != nil {
		doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			if href == "" {
				return
			}
			full := NormalizeURL(href, baseURL)
			if !p.ArticleHref.MatchString(full) || excluded(full, p.ExcludeHref) {
				return
			}
			urls = appendUnique(urls, full)
		})
	}

	// Keep only same-site URLs that carry a path beyond the host.
	host := hostOf(baseURL)
	filtered := make([]string, 0, len(urls))
	for _, u := range urls {
		trimmed := strings.TrimRight(u, "/")
		if strings.Contains(trimmed, host) && !strings.HasSuffix(trimmed, host) {
			filtered = append(filtered, u)
		}
	}
	if len(filtered) > MaxDiscoveredURLs {
		filtered = filtered[:MaxDiscoveredURLs]
	}
	return filtered
}

// NormalizeURL resolves protocol-relative and site-relative hrefs against
// the source base URL. Absolute URLs pass through unchanged.
func NormalizeURL(href, base string) string {
	switch {
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(base, "/") + href
	default:
		return strings.TrimRight(base, "/") + "/" + href
	}
}

func looksLikeArticle(href, baseURL string, p Patterns) bool {
	if excluded(href, p.ExcludeHref) {
		return false
	}
	if p.ArticleHref != nil && p.ArticleHref.MatchString(href) {
		return true
	}
	return strings.Contains(href, hostOf(baseURL))
}

func excluded(href string, fragments []string) bool {
	for _, fragment := range fragments {
		if strings.Contains(href, fragment) {
			return true
		}
	}
	return false
}

func hostOf(baseURL string) string {
	host := strings.TrimPrefix(baseURL, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}

func appendUnique(urls []string, url string) []string {
	for _, existing := range urls {
		if existing == url {
			return urls
		}
	}
	return append(urls, url)
}
