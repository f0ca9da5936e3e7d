package s0_data

import (
	"strings"
	"time"
)

// dateLayouts 허용 날짜 포맷 (앞에서부터 시도)
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
	"20060102",
}

// ParseDate parses an ISO-ish date or timestamp.
// ok=false marks the value as invalid; callers drop such rows.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateTime parses a date column with an optional separate time column
func ParseDateTime(date, clock string) (time.Time, bool) {
	clock = strings.TrimSpace(clock)
	if clock != "" {
		if t, ok := ParseDate(strings.TrimSpace(date) + " " + clock); ok {
			return t, true
		}
	}
	return ParseDate(date)
}
