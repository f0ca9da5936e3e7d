package s2_features

import (
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s0_data"
)

// CleanStats counts rows dropped while cleaning
type CleanStats struct {
	Input     int `json:"input"`
	BadDate   int `json:"bad_date"`
	BadNumber int `json:"bad_number"`
	Duplicate int `json:"duplicate"`
	Kept      int `json:"kept"`
}

// Dropped returns the number of rows removed
func (s CleanStats) Dropped() int {
	return s.BadDate + s.BadNumber + s.Duplicate
}

// CleanPrices coerces raw rows into bars sorted by date.
// Rows with an invalid date or a missing, non-numeric or infinite field are dropped.
// For a repeated date the earliest row in input order is kept.
func CleanPrices(raw []contracts.RawPriceRow) ([]contracts.PriceBar, CleanStats) {
	stats := CleanStats{Input: len(raw)}
	bars := make([]contracts.PriceBar, 0, len(raw))

	for _, r := range raw {
		date, ok := s0_data.ParseDate(r.Date)
		if !ok {
			stats.BadDate++
			continue
		}

		bar, ok := parseBar(r)
		if !ok {
			stats.BadNumber++
			continue
		}
		bar.Date = contracts.TruncateDay(date)
		bars = append(bars, bar)
	}

	// 동일 날짜는 입력 순서 유지 (stable)
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Date.Equal(out[len(out)-1].Date) {
			stats.Duplicate++
			continue
		}
		out = append(out, b)
	}

	stats.Kept = len(out)
	return out, stats
}

func parseBar(r contracts.RawPriceRow) (contracts.PriceBar, bool) {
	fields := []string{r.Open, r.High, r.Low, r.Close, r.AdjClose, r.Volume}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, ok := parseNumber(f)
		if !ok {
			return contracts.PriceBar{}, false
		}
		values[i] = v
	}

	if values[5] < 0 {
		return contracts.PriceBar{}, false
	}

	return contracts.PriceBar{
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		AdjClose: values[4],
		Volume:   values[5],
		Ticker:   r.Ticker,
	}, true
}

// parseNumber strips thousands separators and rejects NaN/±Inf
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !contracts.IsFinite(v) {
		return 0, false
	}
	return v, true
}
