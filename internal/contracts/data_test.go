package contracts

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeatureColumns(t *testing.T) {
	base := FeatureColumns(DefaultFeatureOptions())
	assert.Len(t, base, 15)
	assert.Equal(t, ColSentiment, base[len(base)-1])
	assert.Equal(t, 4, ColumnIndex(base, ColAdjClose))
	assert.Equal(t, -1, ColumnIndex(base, ColRSI))

	full := FeatureColumns(FeatureOptions{IncludeRSI: true, RSIPeriod: 14, IncludeSignal: true})
	assert.Len(t, full, 17)
	assert.Equal(t, 14, ColumnIndex(full, ColRSI))
}

func TestDailyFeatureRow_Vector(t *testing.T) {
	row := DailyFeatureRow{Open: 1, Close: 2, AdjClose: 3, Sentiment: 0.5}
	v := row.Vector([]string{ColAdjClose, ColSentiment, ColOpen})
	assert.Equal(t, []float64{3, 0.5, 1}, v)
	assert.True(t, math.IsNaN(row.Value("unknown")))
}

func TestDailyFeatureRow_IsFinite(t *testing.T) {
	row := DailyFeatureRow{Close: 1}
	assert.True(t, row.IsFinite([]string{ColClose, ColMA7}))

	row.LogMomentum = math.NaN()
	assert.False(t, row.IsFinite([]string{ColLogMomentum}))

	row.LogMomentum = math.Inf(1)
	assert.False(t, row.IsFinite([]string{ColLogMomentum}))
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-05", DateKey(ts))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), TruncateDay(ts))
}

func TestForecastConfig_Steps(t *testing.T) {
	cfg := DefaultForecastConfig()
	assert.Equal(t, 5, cfg.OutputSize())
	assert.Equal(t, 5, cfg.ForecastSteps())

	cfg.Mode = ModeAutoregressive
	cfg.Steps = 30
	assert.Equal(t, 1, cfg.OutputSize())
	assert.Equal(t, 30, cfg.ForecastSteps())
	assert.False(t, ForecastMode("lstm").IsValid())
}

func TestWindow_Flatten(t *testing.T) {
	w := Window{History: [][]float64{{1, 2}, {3, 4}}}
	assert.Equal(t, []float64{1, 2, 3, 4}, w.Flatten())
	assert.Nil(t, Window{}.Flatten())
}
