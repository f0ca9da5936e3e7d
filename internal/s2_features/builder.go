package s2_features

import (
	"context"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/pkg/logger"
)

const (
	shortWindow   = 7
	longWindow    = 20
	emaSpan       = 20
	bollingerSize = 2.0
)

// BuildStats summarizes a feature build
type BuildStats struct {
	Clean       CleanStats `json:"clean"`
	NonFinite   int        `json:"non_finite"` // 지표 계산 후 제거된 행 (첫 행 포함)
	FeatureRows int        `json:"feature_rows"`
}

// Builder derives technical indicators from daily bars
// ⭐ SSOT: 가격 지표 계산은 여기서만
type Builder struct {
	opts   contracts.FeatureOptions
	logger *logger.Logger
}

// NewBuilder creates a new feature builder
func NewBuilder(opts contracts.FeatureOptions, log *logger.Logger) *Builder {
	if opts.RSIPeriod <= 0 {
		opts.RSIPeriod = contracts.DefaultFeatureOptions().RSIPeriod
	}
	return &Builder{
		opts:   opts,
		logger: log.WithField("module", "s2_features"),
	}
}

// Columns returns the price feature columns this builder fills
func (b *Builder) Columns() []string {
	return contracts.PriceColumns(b.opts)
}

// Build cleans raw price rows and returns one enriched row per trading day.
// Every indicator at day t uses only days up to t. Rows with any non-finite
// value are dropped, so the first day (no log momentum) never appears.
func (b *Builder) Build(ctx context.Context, raw []contracts.RawPriceRow) ([]contracts.DailyFeatureRow, BuildStats, error) {
	var stats BuildStats
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	bars, clean := CleanPrices(raw)
	stats.Clean = clean
	if len(bars) == 0 {
		return nil, stats, &contracts.DataValidationError{
			Stage:   contracts.StageFeatures,
			Message: "no price rows after cleaning",
		}
	}

	rows := b.Derive(bars)

	cols := b.Columns()
	out := make([]contracts.DailyFeatureRow, 0, len(rows))
	for _, r := range rows {
		if !r.IsFinite(cols) {
			stats.NonFinite++
			continue
		}
		out = append(out, r)
	}
	stats.FeatureRows = len(out)

	b.logger.WithFields(map[string]interface{}{
		"input":      clean.Input,
		"bad_date":   clean.BadDate,
		"bad_number": clean.BadNumber,
		"duplicate":  clean.Duplicate,
		"non_finite": stats.NonFinite,
		"rows":       len(out),
	}).Debug("Built price features")

	return out, stats, nil
}

// Derive computes every indicator for sorted, cleaned bars without dropping rows
func (b *Builder) Derive(bars []contracts.PriceBar) []contracts.DailyFeatureRow {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	ma7 := RollingMean(closes, shortWindow)
	ma20 := RollingMean(closes, longWindow)
	macd := MACD(closes)
	sd20 := RollingStd(closes, longWindow)
	upper, lower := BollingerBands(ma20, sd20, bollingerSize)
	ema := EWM(closes, emaSpan)
	momentum := LogMomentum(closes)

	var rsi, signal []float64
	if b.opts.IncludeRSI {
		rsi = RSI(closes, b.opts.RSIPeriod)
	}
	if b.opts.IncludeSignal {
		signal = MACDSignal(macd)
	}

	rows := make([]contracts.DailyFeatureRow, len(bars))
	for i, bar := range bars {
		rows[i] = contracts.DailyFeatureRow{
			Date:        bar.Date,
			Open:        bar.Open,
			High:        bar.High,
			Low:         bar.Low,
			Close:       bar.Close,
			AdjClose:    bar.AdjClose,
			Volume:      bar.Volume,
			MA7:         ma7[i],
			MA20:        ma20[i],
			MACD:        macd[i],
			SD20:        sd20[i],
			UpperBand:   upper[i],
			LowerBand:   lower[i],
			EMA:         ema[i],
			LogMomentum: momentum[i],
		}
		if rsi != nil {
			rows[i].RSI = rsi[i]
		}
		if signal != nil {
			rows[i].MACDSignal = signal[i]
		}
	}
	return rows
}
