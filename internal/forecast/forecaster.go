package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s5_window"
)

// ColumnScaler maps single values between original units and scaled space
type ColumnScaler interface {
	TransformColumn(j int, v float64) (float64, error)
	InverseColumn(j int, v float64) (float64, error)
}

// Forecaster produces multi-step forecasts from a trained model
type Forecaster struct {
	model         *Model
	mode          contracts.ForecastMode
	horizon       int
	targetIdx     int
	featureScaler ColumnScaler
	targetScaler  ColumnScaler
	log           zerolog.Logger
}

// NewForecaster wires a trained model to the scalers of its dataset.
// targetIdx is the target column position in the feature matrix.
func NewForecaster(model *Model, cfg contracts.ForecastConfig, targetIdx int, featureScaler, targetScaler ColumnScaler, log zerolog.Logger) *Forecaster {
	return &Forecaster{
		model:         model,
		mode:          cfg.Mode,
		horizon:       cfg.Horizon,
		targetIdx:     targetIdx,
		featureScaler: featureScaler,
		targetScaler:  targetScaler,
		log:           log.With().Str("component", "forecast.forecaster").Logger(),
	}
}

// Forecast returns steps predicted target values in scaled space.
// Direct mode reads them from one inference call; autoregressive mode predicts
// one value, appends it to a private copy of history and repeats.
// The caller's history is never modified.
func (f *Forecaster) Forecast(ctx context.Context, history *s5_window.History, steps int) ([]float64, error) {
	if steps <= 0 {
		return nil, &contracts.DataValidationError{
			Stage: contracts.StageForecast, Field: "steps", Message: fmt.Sprintf("must be positive, got %d", steps),
		}
	}
	if !history.Full() {
		return nil, &contracts.InsufficientDataError{
			Stage: contracts.StageForecast, What: "history rows", Have: history.Len(), Need: history.Cap(),
		}
	}

	switch f.mode {
	case contracts.ModeDirect:
		return f.direct(history, steps)
	case contracts.ModeAutoregressive:
		return f.autoregressive(ctx, history, steps)
	default:
		return nil, &contracts.DataValidationError{
			Stage: contracts.StageForecast, Field: "mode", Message: fmt.Sprintf("unknown mode %q", f.mode),
		}
	}
}

func (f *Forecaster) direct(history *s5_window.History, steps int) ([]float64, error) {
	if steps > f.model.Output {
		return nil, &contracts.DataValidationError{
			Stage:   contracts.StageForecast,
			Field:   "steps",
			Message: fmt.Sprintf("direct mode yields %d values, %d requested", f.model.Output, steps),
		}
	}
	y, err := f.model.Predict(flatten(history.Rows()))
	if err != nil {
		return nil, err
	}
	return y[:steps], nil
}

func (f *Forecaster) autoregressive(ctx context.Context, history *s5_window.History, steps int) ([]float64, error) {
	buf, err := s5_window.HistoryFrom(history.Rows(), history.Cap())
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, steps)
	for k := 0; k < steps; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		y, err := f.model.Predict(flatten(buf.Rows()))
		if err != nil {
			return nil, err
		}
		pred := y[0]
		out = append(out, pred)

		// 타깃 스케일 → 원 단위 → 피처 스케일
		price, err := f.targetScaler.InverseColumn(0, pred)
		if err != nil {
			return nil, fmt.Errorf("inverse target at step %d: %w", k+1, err)
		}
		feat, err := f.featureScaler.TransformColumn(f.targetIdx, price)
		if err != nil {
			return nil, fmt.Errorf("rescale target at step %d: %w", k+1, err)
		}

		next := buf.Latest()
		next[f.targetIdx] = feat
		if err := buf.Push(next); err != nil {
			return nil, err
		}
	}

	f.log.Debug().Int("steps", steps).Msg("autoregressive rollout completed")
	return out, nil
}

// Inverse maps scaled predictions back to original target units
func (f *Forecaster) Inverse(scaled []float64) ([]float64, error) {
	out := make([]float64, len(scaled))
	for i, v := range scaled {
		x, err := f.targetScaler.InverseColumn(0, v)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// Predict forecasts steps values and returns them in original target units
func (f *Forecaster) Predict(ctx context.Context, history *s5_window.History, steps int) ([]float64, error) {
	scaled, err := f.Forecast(ctx, history, steps)
	if err != nil {
		return nil, err
	}
	return f.Inverse(scaled)
}

// ForecastDates returns the date of each predicted step.
// With held-out rows the first steps holdout dates are used; the remaining
// steps, or all of them without a holdout, are consecutive calendar days after
// the last known date.
func ForecastDates(lastDate time.Time, holdout []time.Time, steps int) []time.Time {
	dates := make([]time.Time, steps)
	next := contracts.TruncateDay(lastDate)
	for i := range dates {
		if i < len(holdout) {
			dates[i] = contracts.TruncateDay(holdout[i])
			next = dates[i]
			continue
		}
		next = next.AddDate(0, 0, 1)
		dates[i] = next
	}
	return dates
}

// BuildPoints pairs predictions with dates and, where available, real values
func BuildPoints(dates []time.Time, predicted, actual []float64) []contracts.ForecastPoint {
	points := make([]contracts.ForecastPoint, len(predicted))
	for i, p := range predicted {
		points[i] = contracts.ForecastPoint{Date: dates[i], Step: i + 1, Predicted: p}
		if i < len(actual) {
			v := actual[i]
			points[i].Real = &v
		}
	}
	return points
}

func flatten(rows [][]float64) []float64 {
	return contracts.Window{History: rows}.Flatten()
}
