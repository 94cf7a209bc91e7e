package catalog

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by date filters.
const DateLayout = "2006-01-02"

// Timestamp layouts accepted for scene datetimes.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	DateLayout,
}

// ParseTimestamp parses an ISO-8601 scene timestamp and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	var lastErr error
	for _, layout := range timestampFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, lastErr)
}

// DayOf truncates an ISO timestamp to its calendar day (YYYY-MM-DD).
func DayOf(ts string) string {
	if len(ts) < len(DateLayout) {
		return ts
	}
	return ts[:len(DateLayout)]
}

// NormalizeDate returns the YYYY-MM-DD form of a date filter value.
// Full timestamps are truncated to their day; anything else reports false.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err == nil {
		return s, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.Format(DateLayout), true
	}
	return "", false
}
