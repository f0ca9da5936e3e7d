package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s5_window"
)

// linearScaler scales column j by factors[j]
type linearScaler struct{ factors []float64 }

func (s linearScaler) TransformColumn(j int, v float64) (float64, error) { return v / s.factors[j], nil }
func (s linearScaler) InverseColumn(j int, v float64) (float64, error) { return v * s.factors[j], nil }

// constantModel always outputs out
func constantModel(input int, out []float64) *Model {
	m := &Model{Input: input, Hidden: 1, Output: len(out)}
	m.Params = make([]float64, m.size())
	copy(m.b2(), out)
	return m
}

// echoModel outputs tanh of the target column of the newest history row
func echoModel(seqLength, cols, targetIdx int) *Model {
	m := &Model{Input: seqLength * cols, Hidden: 1, Output: 1}
	m.Params = make([]float64, m.size())
	m.w1()[(seqLength-1)*cols+targetIdx] = 1
	m.w2()[0] = 1
	return m
}

func fullHistory(t *testing.T, rows [][]float64, seqLength int) *s5_window.History {
	t.Helper()
	h, err := s5_window.HistoryFrom(rows, seqLength)
	require.NoError(t, err)
	return h
}

func TestForecaster_Direct(t *testing.T) {
	cfg := contracts.DefaultForecastConfig()
	cfg.SeqLength, cfg.Horizon = 3, 4

	scaler := linearScaler{factors: []float64{100, 100}}
	f := NewForecaster(constantModel(6, []float64{0.1, 0.2, 0.3, 0.4}), cfg, 0, scaler, scaler, zerolog.Nop())
	h := fullHistory(t, [][]float64{{0.1, 0}, {0.2, 0}, {0.3, 0}}, 3)

	scaled, err := f.Forecast(context.Background(), h, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, scaled)

	prices, err := f.Predict(context.Background(), h, 4)
	require.NoError(t, err)
	for i, want := range []float64{10, 20, 30, 40} {
		assert.InDelta(t, want, prices[i], 1e-9)
	}

	_, err = f.Forecast(context.Background(), h, 5)
	assert.True(t, contracts.IsDataValidation(err))
}

func TestForecaster_AutoregressiveFeedsPredictionsBack(t *testing.T) {
	cfg := contracts.DefaultForecastConfig()
	cfg.SeqLength, cfg.Horizon = 2, 1
	cfg.Mode = contracts.ModeAutoregressive

	// target units: x10 in target space, x20 in feature space
	targetScaler := linearScaler{factors: []float64{10}}
	featureScaler := linearScaler{factors: []float64{0, 20}}
	f := NewForecaster(echoModel(2, 2, 1), cfg, 1, featureScaler, targetScaler, zerolog.Nop())

	rows := [][]float64{{0.7, 0.4}, {0.7, 0.8}}
	h := fullHistory(t, rows, 2)

	got, err := f.Forecast(context.Background(), h, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// feature value fed back = pred * 10 / 20
	x := 0.8
	for i := range got {
		want := math.Tanh(x)
		assert.InDelta(t, want, got[i], 1e-12, "step %d", i+1)
		x = want / 2
	}

	// caller history untouched
	assert.Equal(t, rows, h.Rows())
}

func TestForecaster_Errors(t *testing.T) {
	cfg := contracts.DefaultForecastConfig()
	cfg.SeqLength = 3
	scaler := linearScaler{factors: []float64{1}}
	f := NewForecaster(constantModel(3, []float64{0.5}), cfg, 0, scaler, scaler, zerolog.Nop())

	partial := s5_window.NewHistory(3, 1)
	require.NoError(t, partial.Push([]float64{1}))
	_, err := f.Forecast(context.Background(), partial, 1)
	assert.True(t, contracts.IsInsufficientData(err))

	full := fullHistory(t, [][]float64{{1}, {2}, {3}}, 3)
	_, err = f.Forecast(context.Background(), full, 0)
	assert.True(t, contracts.IsDataValidation(err))

	cfg.Mode = "beam"
	bad := NewForecaster(constantModel(3, []float64{0.5}), cfg, 0, scaler, scaler, zerolog.Nop())
	_, err = bad.Forecast(context.Background(), full, 1)
	assert.True(t, contracts.IsDataValidation(err))
}

func TestForecastDates(t *testing.T) {
	last := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	holdout := []time.Time{
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
	}

	got := ForecastDates(last, holdout, 4)
	assert.Equal(t, []time.Time{
		holdout[0],
		holdout[1],
		time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	}, got)

	got = ForecastDates(last, nil, 2)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), got[1])
}

func TestBuildPoints(t *testing.T) {
	dates := ForecastDates(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil, 3)
	points := BuildPoints(dates, []float64{1, 2, 3}, []float64{1.5, 2.5})

	require.Len(t, points, 3)
	assert.Equal(t, 1, points[0].Step)
	require.NotNil(t, points[1].Real)
	assert.Equal(t, 2.5, *points[1].Real)
	assert.Nil(t, points[2].Real)
}

func TestEvaluate(t *testing.T) {
	m := Evaluate([]float64{11, 9, 13}, []float64{10, 10, 12}, 9)

	assert.Equal(t, 3, m.Count)
	assert.InDelta(t, 1.0, m.MAE, 1e-12)
	assert.InDelta(t, 1.0, m.RMSE, 1e-12)
	assert.InDelta(t, 100*(0.1+0.1+1.0/12)/3, m.MAPE, 1e-9)
	assert.InDelta(t, 2.0/3, m.DirectionHit, 1e-12)

	assert.Equal(t, contracts.ForecastMetrics{}, Evaluate(nil, []float64{1}, 0))
}

func TestErrorBand(t *testing.T) {
	lo, hi := ErrorBand([]float64{11, 9, 13}, []float64{10, 10, 12}, 10)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)
}
