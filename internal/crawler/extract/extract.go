// Package extract turns fetched HTML documents into structured article
// fragments using ordered selector cascades. A document either yields a
// complete fragment or a typed rejection naming the failing step.
package extract

import (
	"errors"
	"regexp"
	"time"
)

// ErrNoTitle reports that no title strategy produced text.
var ErrNoTitle = errors.New("no title found")

// ErrShortContent reports that the best body candidate is below the
// acceptance threshold.
var ErrShortContent = errors.New("content missing or too short")

// MinContentLength is the acceptance threshold for article bodies.
const MinContentLength = 100

// MaxDiscoveredURLs bounds the candidate list per homepage. Policy constant,
// not a correctness requirement.
const MaxDiscoveredURLs = 30

// Fragment is an extracted article without portal/URL/collection metadata;
// the source adapter attaches those.
type Fragment struct {
	Title        string
	Content      string
	PublishedAt  time.Time
	DateInferred bool
}

// Patterns holds one source's markup heuristics.
type Patterns struct {
	// Listing matches the class of homepage containers that hold article
	// links.
	Listing *regexp.Regexp
	// ArticleHref matches hrefs that look like dated article URLs.
	ArticleHref *regexp.Regexp
	// ExcludeHref lists substrings that disqualify a candidate href.
	ExcludeHref []string
}

var (
	titleClassPattern   = regexp.MustCompile(`(?i)(title|titulo|headline)`)
	contentClassPattern = regexp.MustCompile(`(?i)(content|corpo|texto|article-body)`)
	postClassPattern    = regexp.MustCompile(`(?i)post`)
	junkClassPattern    = regexp.MustCompile(`(?i)(ad|advertisement|related|sidebar)`)
	dateClassPattern    = regexp.MustCompile(`(?i)(date|data)`)
)
