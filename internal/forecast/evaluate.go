package forecast

import (
	"math"
	"sort"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// Evaluate compares predicted with actual target values over their common length.
// lastKnown is the last actual value before the first step; a step is a direction
// hit when prediction and reality move the same way from the previous actual value.
// ⭐ SSOT: 예측 vs 실제 검증 로직
func Evaluate(predicted, actual []float64, lastKnown float64) contracts.ForecastMetrics {
	n := min(len(predicted), len(actual))
	if n == 0 {
		return contracts.ForecastMetrics{}
	}

	var sumAbs, sumSq, sumPct float64
	var pctCount, hitCount int
	prev := lastKnown

	for i := 0; i < n; i++ {
		diff := predicted[i] - actual[i]
		sumAbs += math.Abs(diff)
		sumSq += diff * diff
		if actual[i] != 0 {
			sumPct += math.Abs(diff / actual[i])
			pctCount++
		}

		// 방향성 적중 (예측과 실제 부호 일치)
		predUp := predicted[i] >= prev
		realUp := actual[i] >= prev
		if predUp == realUp {
			hitCount++
		}
		prev = actual[i]
	}

	m := contracts.ForecastMetrics{
		Count:        n,
		MAE:          sumAbs / float64(n),
		RMSE:         math.Sqrt(sumSq / float64(n)),
		DirectionHit: float64(hitCount) / float64(n),
	}
	if pctCount > 0 {
		m.MAPE = 100 * sumPct / float64(pctCount)
	}
	return m
}

// ErrorBand returns the p-th and (100-p)-th percentiles of predicted-actual errors
func ErrorBand(predicted, actual []float64, p int) (lo, hi float64) {
	n := min(len(predicted), len(actual))
	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		errs[i] = predicted[i] - actual[i]
	}
	return percentile(errs, p), percentile(errs, 100-p)
}

// percentile 백분위수 계산 (최근접 하위 순위)
func percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)-1) * float64(p) / 100.0)
	return sorted[idx]
}
