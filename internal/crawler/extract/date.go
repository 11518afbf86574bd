package extract

import (
	"strings"
	"time"
)

// dateFormats is the ordered list of accepted layouts: machine-readable ISO
// variants first, then the human-readable day/month forms the portals print.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseDate tries each known layout in order and reports whether any
// matched.
func ParseDate(raw string) (time.Time, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return time.Time{}, false
	}
	// Millisecond suffixes are not part of any accepted layout.
	if idx := strings.Index(candidate, "."); idx > 0 && strings.Contains(candidate, "T") {
		if zone := strings.IndexAny(candidate[idx:], "Z+-"); zone > 0 {
			candidate = candidate[:idx] + candidate[idx+zone:]
		} else {
			candidate = candidate[:idx]
		}
	}
	for _, layout := range dateFormats {
		if parsed, err := time.Parse(layout, candidate); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
