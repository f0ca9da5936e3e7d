package s3_sentiment

import (
	"sort"
	"time"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// DailySentiment 일별 감성 요약
type DailySentiment struct {
	Date      time.Time `json:"date"`
	Score     float64   `json:"sentiment_score"` // 평균 compound
	PostCount int       `json:"post_count"`
}

// SentimentSeries is a date-ordered mapping of daily mean sentiment
type SentimentSeries struct {
	days  []DailySentiment
	index map[string]int
}

// Aggregate groups per-post compound scores by calendar date and averages them.
// Non-finite scores are ignored.
// ⭐ SSOT: S3 일별 감성 집계는 여기서만
func Aggregate(posts []contracts.ScoredPost) SentimentSeries {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	dates := make(map[string]time.Time)

	for _, p := range posts {
		score := p.Sentiment.Compound
		if !contracts.IsFinite(score) {
			continue
		}
		day := p.Date
		if day.IsZero() {
			day = p.Timestamp
		}
		day = contracts.TruncateDay(day)
		key := contracts.DateKey(day)

		sums[key] += score
		counts[key]++
		dates[key] = day
	}

	days := make([]DailySentiment, 0, len(sums))
	for key, sum := range sums {
		days = append(days, DailySentiment{
			Date:      dates[key],
			Score:     sum / float64(counts[key]),
			PostCount: counts[key],
		})
	}

	return NewSeries(days)
}

// NewSeries builds a series from daily values. A later duplicate date replaces an earlier one.
func NewSeries(days []DailySentiment) SentimentSeries {
	byKey := make(map[string]DailySentiment, len(days))
	for _, d := range days {
		d.Date = contracts.TruncateDay(d.Date)
		byKey[contracts.DateKey(d.Date)] = d
	}

	sorted := make([]DailySentiment, 0, len(byKey))
	for _, d := range byKey {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	index := make(map[string]int, len(sorted))
	for i, d := range sorted {
		index[contracts.DateKey(d.Date)] = i
	}

	return SentimentSeries{days: sorted, index: index}
}

// Len returns the number of dates with a score
func (s SentimentSeries) Len() int {
	return len(s.days)
}

// Days returns the daily values in date order
func (s SentimentSeries) Days() []DailySentiment {
	out := make([]DailySentiment, len(s.days))
	copy(out, s.days)
	return out
}

// Get returns the score observed on date
func (s SentimentSeries) Get(date time.Time) (float64, bool) {
	i, ok := s.index[contracts.DateKey(date)]
	if !ok {
		return 0, false
	}
	return s.days[i].Score, true
}

// LatestOnOrBefore returns the score of the most recent date <= date.
// ok is false when no earlier score exists; the value is never taken from a later date.
func (s SentimentSeries) LatestOnOrBefore(date time.Time) (score float64, from time.Time, ok bool) {
	day := contracts.TruncateDay(date)
	// 첫 번째로 day보다 늦은 날짜의 위치
	i := sort.Search(len(s.days), func(i int) bool {
		return s.days[i].Date.After(day)
	})
	if i == 0 {
		return 0, time.Time{}, false
	}
	d := s.days[i-1]
	return d.Score, d.Date, true
}
