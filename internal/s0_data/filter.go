package s0_data

import (
	"strings"
	"time"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// FilterPricesByTicker keeps rows of ticker. Rows without a ticker column value are kept.
func FilterPricesByTicker(rows []contracts.RawPriceRow, ticker string) []contracts.RawPriceRow {
	if ticker == "" {
		return rows
	}
	out := make([]contracts.RawPriceRow, 0, len(rows))
	for _, r := range rows {
		if r.Ticker == "" || strings.EqualFold(r.Ticker, ticker) {
			out = append(out, r)
		}
	}
	return out
}

// FilterPricesByRange keeps rows dated within [from, to]. Zero bounds are open.
// Unparseable dates pass through; the feature builder drops them.
func FilterPricesByRange(rows []contracts.RawPriceRow, from, to time.Time) []contracts.RawPriceRow {
	if from.IsZero() && to.IsZero() {
		return rows
	}
	out := make([]contracts.RawPriceRow, 0, len(rows))
	for _, r := range rows {
		d, ok := ParseDate(r.Date)
		if ok && !inRange(contracts.TruncateDay(d), from, to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterPosts keeps posts of ticker dated within [from, to]
func FilterPosts(posts []contracts.Post, ticker string, from, to time.Time) []contracts.Post {
	out := make([]contracts.Post, 0, len(posts))
	for _, p := range posts {
		if ticker != "" && p.Ticker != "" && !strings.EqualFold(p.Ticker, ticker) {
			continue
		}
		if !inRange(contracts.TruncateDay(p.Timestamp), from, to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func inRange(day, from, to time.Time) bool {
	if !from.IsZero() && day.Before(contracts.TruncateDay(from)) {
		return false
	}
	if !to.IsZero() && day.After(contracts.TruncateDay(to)) {
		return false
	}
	return true
}
