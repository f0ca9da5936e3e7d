package s4_dataset

import (
	"fmt"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s3_sentiment"
)

// Options Prepare 설정
type Options struct {
	Features     contracts.FeatureOptions
	TargetColumn string // 기본값: Adj Close
	TrainYears   []int
	TestYears    []int // 비어 있으면 홀드아웃 없음
}

// Dataset is the merged, split and scaled feature matrix
type Dataset struct {
	Columns     []string
	TargetIndex int

	// 스케일 전 병합 행
	Train []contracts.DailyFeatureRow
	Test  []contracts.DailyFeatureRow

	// 스케일된 행렬 (Columns 순서)
	TrainMatrix [][]float64
	TestMatrix  [][]float64

	FeatureScaler *MinMaxScaler
	TargetScaler  *MinMaxScaler

	Merge MergeStats
}

// HasHoldout reports whether a test partition exists
func (d *Dataset) HasHoldout() bool {
	return len(d.Test) > 0
}

// Prepare merges sentiment into the feature rows, splits by year and scales.
// Both scalers are fit on the train partition only and then applied to test.
// ⭐ SSOT: S4 데이터셋 구성은 여기서만
func Prepare(rows []contracts.DailyFeatureRow, series s3_sentiment.SentimentSeries, opts Options) (*Dataset, error) {
	target := opts.TargetColumn
	if target == "" {
		target = contracts.ColAdjClose
	}
	cols := contracts.FeatureColumns(opts.Features)
	targetIdx := contracts.ColumnIndex(cols, target)
	if targetIdx < 0 {
		return nil, &contracts.DataValidationError{
			Stage: contracts.StageDataset, Field: "target_column", Message: fmt.Sprintf("unknown column %q", target),
		}
	}

	merged, stats := Merge(rows, series, cols)
	if len(merged) == 0 {
		return nil, &contracts.InsufficientDataError{
			Stage: contracts.StageDataset, What: "rows with sentiment", Have: 0, Need: 1,
		}
	}

	train, test, err := Split(merged, opts.TrainYears, opts.TestYears)
	if err != nil {
		return nil, err
	}

	trainRaw := matrix(train, cols)
	featureScaler := NewMinMaxScaler(cols...)
	if err := featureScaler.Fit(PartitionTrain, trainRaw); err != nil {
		return nil, fmt.Errorf("fit feature scaler: %w", err)
	}
	targetScaler := NewMinMaxScaler(target)
	if err := targetScaler.Fit(PartitionTrain, column(trainRaw, targetIdx)); err != nil {
		return nil, fmt.Errorf("fit target scaler: %w", err)
	}

	trainScaled, err := featureScaler.Transform(trainRaw)
	if err != nil {
		return nil, fmt.Errorf("scale train: %w", err)
	}
	testScaled, err := featureScaler.Transform(matrix(test, cols))
	if err != nil {
		return nil, fmt.Errorf("scale test: %w", err)
	}

	return &Dataset{
		Columns:       cols,
		TargetIndex:   targetIdx,
		Train:         train,
		Test:          test,
		TrainMatrix:   trainScaled,
		TestMatrix:    testScaled,
		FeatureScaler: featureScaler,
		TargetScaler:  targetScaler,
		Merge:         stats,
	}, nil
}

// ScaleTargets maps original-unit target values into the target scaler's space
func (d *Dataset) ScaleTargets(values []float64) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		x, err := d.TargetScaler.TransformColumn(0, v)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// TargetValues returns the raw target column of rows
func (d *Dataset) TargetValues(rows []contracts.DailyFeatureRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Value(d.Columns[d.TargetIndex])
	}
	return out
}

func matrix(rows []contracts.DailyFeatureRow, cols []string) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Vector(cols)
	}
	return out
}

func column(data [][]float64, j int) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = []float64{row[j]}
	}
	return out
}
