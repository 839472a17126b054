package commands

import (
	"regexp"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseDate accepts the timestamp shapes the backend emits, with or
// without a zone. Zoneless values are UTC.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatDate(s string) string {
	if s == "" {
		return "Unknown date"
	}
	t, ok := parseDate(s)
	if !ok {
		return "Invalid date"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// pdfFileName is analysis-<query>-<date>.pdf with the query made file safe.
func pdfFileName(query string, now time.Time) string {
	q := strings.Trim(unsafeFileChars.ReplaceAllString(query, "_"), "_")
	if q == "" {
		q = "report"
	}
	return "analysis-" + q + "-" + now.Format(time.DateOnly) + ".pdf"
}
