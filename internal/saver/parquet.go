package saver

import (
	"slices"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/sentiforecast/internal/contracts"
)

// FeatureRecord 피처 테이블 parquet 행
type FeatureRecord struct {
	Date        string   `parquet:"date"`
	Open        float64  `parquet:"open"`
	High        float64  `parquet:"high"`
	Low         float64  `parquet:"low"`
	Close       float64  `parquet:"close"`
	AdjClose    float64  `parquet:"adj_close"`
	Volume      float64  `parquet:"volume"`
	MA7         float64  `parquet:"ma7"`
	MA20        float64  `parquet:"ma20"`
	MACD        float64  `parquet:"macd"`
	SD20        float64  `parquet:"sd20"`
	UpperBand   float64  `parquet:"upper_band"`
	LowerBand   float64  `parquet:"lower_band"`
	EMA         float64  `parquet:"ema"`
	LogMomentum float64  `parquet:"log_momentum"`
	RSI         *float64 `parquet:"rsi,optional"`
	MACDSignal  *float64 `parquet:"macd_signal,optional"`
	Sentiment   *float64 `parquet:"sentiment_score,optional"`
}

// ParquetSaver 피처 테이블을 parquet로 저장
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

// SaveFeatures writes the fixed indicator columns; optional columns are null unless listed in cols
func (ParquetSaver) SaveFeatures(rows []contracts.DailyFeatureRow, cols []string, path string) error {
	records := ToRecords(rows, cols)
	return writeFile(path, func(tmp string) error {
		return parquet.WriteFile(tmp, records)
	})
}

// ToRecords converts feature rows to parquet records
func ToRecords(rows []contracts.DailyFeatureRow, cols []string) []FeatureRecord {
	withRSI := slices.Contains(cols, contracts.ColRSI)
	withSignal := slices.Contains(cols, contracts.ColMACDSignal)
	withSentiment := slices.Contains(cols, contracts.ColSentiment)

	records := make([]FeatureRecord, len(rows))
	for i, r := range rows {
		rec := FeatureRecord{
			Date:        contracts.DateKey(r.Date),
			Open:        r.Open,
			High:        r.High,
			Low:         r.Low,
			Close:       r.Close,
			AdjClose:    r.AdjClose,
			Volume:      r.Volume,
			MA7:         r.MA7,
			MA20:        r.MA20,
			MACD:        r.MACD,
			SD20:        r.SD20,
			UpperBand:   r.UpperBand,
			LowerBand:   r.LowerBand,
			EMA:         r.EMA,
			LogMomentum: r.LogMomentum,
		}
		if withRSI {
			rec.RSI = ptr(r.RSI)
		}
		if withSignal {
			rec.MACDSignal = ptr(r.MACDSignal)
		}
		if withSentiment && r.HasSentiment {
			rec.Sentiment = ptr(r.Sentiment)
		}
		records[i] = rec
	}
	return records
}

func ptr(v float64) *float64 {
	return &v
}
