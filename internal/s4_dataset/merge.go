// Package s4_dataset joins price features with daily sentiment, splits by year and scales.
package s4_dataset

import (
	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s3_sentiment"
)

// MergeStats 병합 통계
type MergeStats struct {
	Input       int `json:"input"`
	Observed    int `json:"observed"`     // 당일 감성 있음
	ForwardFill int `json:"forward_fill"` // 이전 일자에서 채움
	NoSentiment int `json:"no_sentiment"` // 첫 감성 이전 → 제거
	NonFinite   int `json:"non_finite"`
	Kept        int `json:"kept"`
}

// Coverage returns the share of kept rows whose sentiment was observed that day
func (s MergeStats) Coverage() float64 {
	if s.Kept == 0 {
		return 0
	}
	return float64(s.Observed) / float64(s.Kept)
}

// Merge left-joins feature rows to daily sentiment by date.
// A missing day takes the score of the latest earlier date, never a later one.
// Rows before the first known score are dropped, as are rows with any
// non-finite value in cols.
// ⭐ SSOT: 감성 forward-fill은 여기서만
func Merge(rows []contracts.DailyFeatureRow, series s3_sentiment.SentimentSeries, cols []string) ([]contracts.DailyFeatureRow, MergeStats) {
	stats := MergeStats{Input: len(rows)}
	out := make([]contracts.DailyFeatureRow, 0, len(rows))

	for _, r := range rows {
		score, from, ok := series.LatestOnOrBefore(r.Date)
		if !ok {
			stats.NoSentiment++
			continue
		}

		r.Sentiment = score
		r.HasSentiment = true
		if !r.IsFinite(cols) {
			stats.NonFinite++
			continue
		}

		if contracts.DateKey(from) == contracts.DateKey(contracts.TruncateDay(r.Date)) {
			stats.Observed++
		} else {
			stats.ForwardFill++
		}
		out = append(out, r)
	}

	stats.Kept = len(out)
	return out, stats
}
