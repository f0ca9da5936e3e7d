package contracts

import (
	"math"
	"time"
)

// DateLayout 모든 입출력 CSV의 날짜 포맷
const DateLayout = "2006-01-02"

// RawPriceRow is one price CSV row before type coercion
// ⭐ SSOT: S0 → S2 원시 가격 행 전달
type RawPriceRow struct {
	Line        int    `json:"line"` // 원본 파일 행 번호 (안정 정렬 기준)
	Date        string `json:"date"`
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Close       string `json:"close"`
	AdjClose    string `json:"adj_close"`
	Volume      string `json:"volume"`
	Ticker      string `json:"ticker,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// PriceBar is a cleaned daily OHLCV bar
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   float64   `json:"volume"`
	Ticker   string    `json:"ticker,omitempty"`
}

// DailyFeatureRow is one enriched trading day consumed by the windower
// ⭐ SSOT: S2/S4 → S5 피처 행
type DailyFeatureRow struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   float64   `json:"volume"`

	MA7         float64 `json:"ma7"`
	MA20        float64 `json:"ma20"`
	MACD        float64 `json:"macd"`
	SD20        float64 `json:"sd20"`
	UpperBand   float64 `json:"upper_band"`
	LowerBand   float64 `json:"lower_band"`
	EMA         float64 `json:"ema"`
	LogMomentum float64 `json:"log_momentum"`

	// 선택 지표 (FeatureOptions로 활성화)
	RSI        float64 `json:"rsi,omitempty"`
	MACDSignal float64 `json:"macd_signal,omitempty"`

	Sentiment    float64 `json:"sentiment_score"`
	HasSentiment bool    `json:"-"`
}

// FeatureOptions 선택 지표 설정
type FeatureOptions struct {
	IncludeRSI    bool `json:"include_rsi" yaml:"include_rsi"`
	RSIPeriod     int  `json:"rsi_period" yaml:"rsi_period"`
	IncludeSignal bool `json:"include_signal" yaml:"include_signal"`
}

// DefaultFeatureOptions 기본 지표 설정 (RSI/시그널 라인 비활성)
func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{
		IncludeRSI:    false,
		RSIPeriod:     14,
		IncludeSignal: false,
	}
}

// Feature column names, in matrix order
const (
	ColOpen        = "Open"
	ColHigh        = "High"
	ColLow         = "Low"
	ColClose       = "Close"
	ColAdjClose    = "Adj Close"
	ColVolume      = "Volume"
	ColMA7         = "MA7"
	ColMA20        = "MA20"
	ColMACD        = "MACD"
	ColSD20        = "20SD"
	ColUpperBand   = "upper_band"
	ColLowerBand   = "lower_band"
	ColEMA         = "EMA"
	ColLogMomentum = "log_momentum"
	ColRSI         = "RSI"
	ColMACDSignal  = "MACD_signal"
	ColSentiment   = "sentiment_score"
)

// PriceColumns returns the enriched price columns (no sentiment)
func PriceColumns(opts FeatureOptions) []string {
	cols := []string{
		ColOpen, ColHigh, ColLow, ColClose, ColAdjClose, ColVolume,
		ColMA7, ColMA20, ColMACD, ColSD20, ColUpperBand, ColLowerBand,
		ColEMA, ColLogMomentum,
	}
	if opts.IncludeRSI {
		cols = append(cols, ColRSI)
	}
	if opts.IncludeSignal {
		cols = append(cols, ColMACDSignal)
	}
	return cols
}

// FeatureColumns returns the model input columns (price columns + sentiment)
func FeatureColumns(opts FeatureOptions) []string {
	return append(PriceColumns(opts), ColSentiment)
}

// ColumnIndex returns the position of name in cols, or -1
func ColumnIndex(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the value of a named column
func (r DailyFeatureRow) Value(col string) float64 {
	switch col {
	case ColOpen:
		return r.Open
	case ColHigh:
		return r.High
	case ColLow:
		return r.Low
	case ColClose:
		return r.Close
	case ColAdjClose:
		return r.AdjClose
	case ColVolume:
		return r.Volume
	case ColMA7:
		return r.MA7
	case ColMA20:
		return r.MA20
	case ColMACD:
		return r.MACD
	case ColSD20:
		return r.SD20
	case ColUpperBand:
		return r.UpperBand
	case ColLowerBand:
		return r.LowerBand
	case ColEMA:
		return r.EMA
	case ColLogMomentum:
		return r.LogMomentum
	case ColRSI:
		return r.RSI
	case ColMACDSignal:
		return r.MACDSignal
	case ColSentiment:
		return r.Sentiment
	default:
		return math.NaN()
	}
}

// Vector returns the row as a slice ordered by cols
func (r DailyFeatureRow) Vector(cols []string) []float64 {
	v := make([]float64, len(cols))
	for i, c := range cols {
		v[i] = r.Value(c)
	}
	return v
}

// IsFinite reports whether every value in cols is a finite number
func (r DailyFeatureRow) IsFinite(cols []string) bool {
	for _, c := range cols {
		if !IsFinite(r.Value(c)) {
			return false
		}
	}
	return true
}

// IsFinite reports whether v is neither NaN nor ±Inf
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// DateKey 캘린더 일자 키 (YYYY-MM-DD)
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// TruncateDay drops the time of day, keeping the calendar day in UTC
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
