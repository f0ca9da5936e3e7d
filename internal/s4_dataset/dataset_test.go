package s4_dataset

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s3_sentiment"
)

func featureRow(date time.Time, price float64) contracts.DailyFeatureRow {
	return contracts.DailyFeatureRow{
		Date: date, Open: price - 1, High: price + 1, Low: price - 2, Close: price, AdjClose: price,
		Volume: 1000 + price, MA7: price, MA20: price, MACD: 0.1, SD20: 1,
		UpperBand: price + 2, LowerBand: price - 2, EMA: price, LogMomentum: 0.01,
	}
}

// dailyRows returns n consecutive days starting at start with close = base + i
func dailyRows(start time.Time, n int, base float64) []contracts.DailyFeatureRow {
	rows := make([]contracts.DailyFeatureRow, n)
	for i := range rows {
		rows[i] = featureRow(start.AddDate(0, 0, i), base+float64(i))
	}
	return rows
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestMerge_ForwardFill(t *testing.T) {
	// day 0 .. day 10; sentiment only on day 1 and day 5
	rows := dailyRows(d(2024, 1, 1), 11, 100)
	series := s3_sentiment.NewSeries([]s3_sentiment.DailySentiment{
		{Date: d(2024, 1, 2), Score: 0.1},
		{Date: d(2024, 1, 6), Score: 0.5},
	})

	merged, stats := Merge(rows, series, contracts.FeatureColumns(contracts.DefaultFeatureOptions()))

	require.Len(t, merged, 10)
	assert.Equal(t, d(2024, 1, 2), merged[0].Date, "day 0 has no earlier sentiment and is dropped")
	assert.Equal(t, 1, stats.NoSentiment)
	assert.Equal(t, 2, stats.Observed)
	assert.Equal(t, 8, stats.ForwardFill)
	assert.InDelta(t, 0.2, stats.Coverage(), 1e-12)

	for i, r := range merged {
		want := 0.1
		if i >= 4 {
			want = 0.5
		}
		assert.Equal(t, want, r.Sentiment, "day %d", i+1)
		assert.True(t, r.HasSentiment)
	}
}

func TestMerge_WeekendSentimentCarriesToMonday(t *testing.T) {
	// Saturday post, Monday trading day
	rows := []contracts.DailyFeatureRow{featureRow(d(2024, 1, 8), 100)}
	series := s3_sentiment.NewSeries([]s3_sentiment.DailySentiment{{Date: d(2024, 1, 6), Score: -0.3}})

	merged, _ := Merge(rows, series, contracts.FeatureColumns(contracts.DefaultFeatureOptions()))
	require.Len(t, merged, 1)
	assert.Equal(t, -0.3, merged[0].Sentiment)
}

func TestMerge_DropsNonFinite(t *testing.T) {
	rows := dailyRows(d(2024, 1, 1), 3, 100)
	rows[1].EMA = math.Inf(1)
	series := s3_sentiment.NewSeries([]s3_sentiment.DailySentiment{{Date: d(2024, 1, 1), Score: 0}})

	merged, stats := Merge(rows, series, contracts.FeatureColumns(contracts.DefaultFeatureOptions()))
	assert.Len(t, merged, 2)
	assert.Equal(t, 1, stats.NonFinite)
}

func TestSplit(t *testing.T) {
	rows := append(dailyRows(d(2023, 12, 30), 4, 100), featureRow(d(2022, 6, 1), 50))

	train, test, err := Split(rows, []int{2023}, []int{2024})
	require.NoError(t, err)
	assert.Len(t, train, 2)
	assert.Len(t, test, 2)

	tests := []struct {
		name       string
		train      []int
		test       []int
		validation bool
	}{
		{"no train years", nil, []int{2024}, true},
		{"overlap", []int{2023, 2024}, []int{2024}, true},
		{"inverted", []int{2024}, []int{2023}, true},
		{"empty train partition", []int{2020}, []int{2024}, false},
		{"empty test partition", []int{2023}, []int{2030}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(rows, tt.train, tt.test)
			require.Error(t, err)
			if tt.validation {
				assert.True(t, contracts.IsDataValidation(err))
			} else {
				assert.True(t, contracts.IsInsufficientData(err))
			}
		})
	}
}

func TestSplit_NoHoldout(t *testing.T) {
	train, test, err := Split(dailyRows(d(2024, 1, 1), 5, 100), []int{2024}, nil)
	require.NoError(t, err)
	assert.Len(t, train, 5)
	assert.Empty(t, test)
}

func TestPrepare(t *testing.T) {
	rows := append(dailyRows(d(2023, 12, 1), 31, 100), dailyRows(d(2024, 1, 1), 10, 500)...)
	series := s3_sentiment.NewSeries([]s3_sentiment.DailySentiment{
		{Date: d(2023, 11, 30), Score: -0.5},
		{Date: d(2023, 12, 15), Score: 0.5},
	})

	ds, err := Prepare(rows, series, Options{
		Features:   contracts.DefaultFeatureOptions(),
		TrainYears: []int{2023},
		TestYears:  []int{2024},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, ds.TargetIndex)
	assert.Len(t, ds.TrainMatrix, 31)
	assert.Len(t, ds.TestMatrix, 10)
	assert.True(t, ds.HasHoldout())

	for _, row := range ds.TrainMatrix {
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	// test prices are far above the train range and are not clipped
	assert.Greater(t, ds.TestMatrix[0][ds.TargetIndex], 1.0)

	// feature and target scalers agree on the target column
	for i, row := range ds.TrainMatrix {
		x, err := ds.TargetScaler.TransformColumn(0, ds.Train[i].AdjClose)
		require.NoError(t, err)
		assert.InDelta(t, row[ds.TargetIndex], x, 1e-12)
	}
}

func TestPrepare_UnknownTarget(t *testing.T) {
	_, err := Prepare(dailyRows(d(2024, 1, 1), 3, 1), s3_sentiment.SentimentSeries{}, Options{
		TargetColumn: "nope", TrainYears: []int{2024},
	})
	assert.True(t, contracts.IsDataValidation(err))
}

func TestPrepare_NoSentimentAtAll(t *testing.T) {
	_, err := Prepare(dailyRows(d(2024, 1, 1), 3, 1), s3_sentiment.SentimentSeries{}, Options{TrainYears: []int{2024}})
	assert.True(t, contracts.IsInsufficientData(err))
}

func TestPrepare_NoLeakage(t *testing.T) {
	series := s3_sentiment.NewSeries([]s3_sentiment.DailySentiment{{Date: d(2023, 1, 1), Score: 0.2}})
	opts := Options{TrainYears: []int{2023}, TestYears: []int{2024}}

	base := append(dailyRows(d(2023, 6, 1), 20, 100), dailyRows(d(2024, 1, 2), 5, 200)...)
	a, err := Prepare(base, series, opts)
	require.NoError(t, err)

	// alter and permute the test partition
	altered := append(dailyRows(d(2023, 6, 1), 20, 100), dailyRows(d(2024, 1, 2), 5, 9000)...)
	altered[20], altered[24] = altered[24], altered[20]
	b, err := Prepare(altered, series, opts)
	require.NoError(t, err)

	aMin, _ := a.FeatureScaler.Min()
	bMin, _ := b.FeatureScaler.Min()
	aMax, _ := a.FeatureScaler.Max()
	bMax, _ := b.FeatureScaler.Max()
	assert.Equal(t, aMin, bMin)
	assert.Equal(t, aMax, bMax)
	assert.Equal(t, a.TrainMatrix, b.TrainMatrix)
}

func TestMinMaxScaler_RoundTrip(t *testing.T) {
	data := [][]float64{{1, -5, 7}, {3, 10, 7}, {2.5, 0.25, 7}, {-4, 3, 7}}
	s := NewMinMaxScaler("a", "b", "flat")
	require.NoError(t, s.Fit(PartitionTrain, data))

	scaled, err := s.Transform(data)
	require.NoError(t, err)
	back, err := s.Inverse(scaled)
	require.NoError(t, err)

	for i := range data {
		for j := range data[i] {
			assert.InDelta(t, data[i][j], back[i][j], 1e-6)
		}
	}
	assert.Equal(t, 0.0, scaled[3][0])
	assert.Equal(t, 1.0, scaled[1][1])
	// degenerate column maps to 0
	assert.Equal(t, 0.0, scaled[0][2])
}

func TestMinMaxScaler_Lifecycle(t *testing.T) {
	s := NewMinMaxScaler("x")

	_, err := s.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, contracts.ErrScalerNotFitted)
	_, err = s.InverseColumn(0, 0.5)
	assert.ErrorIs(t, err, contracts.ErrScalerNotFitted)

	err = s.Fit(PartitionTest, [][]float64{{1}})
	var leak *contracts.LeakageGuardError
	assert.True(t, errors.As(err, &leak))
	assert.False(t, s.Fitted())

	require.NoError(t, s.Fit(PartitionTrain, [][]float64{{1}, {3}}))
	assert.ErrorIs(t, s.Fit(PartitionTrain, [][]float64{{0}, {9}}), contracts.ErrScalerAlreadyFitted)

	s.Reset()
	require.NoError(t, s.Fit(PartitionTrain, [][]float64{{0}, {10}}))
	v, err := s.TransformColumn(0, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, err = s.TransformColumn(1, 5)
	assert.Error(t, err)
}

func TestMinMaxScaler_FitErrors(t *testing.T) {
	s := NewMinMaxScaler("a", "b")
	assert.True(t, contracts.IsInsufficientData(s.Fit(PartitionTrain, nil)))
	assert.True(t, contracts.IsDataValidation(s.Fit(PartitionTrain, [][]float64{{1}})))
	assert.True(t, contracts.IsDataValidation(s.Fit(PartitionTrain, [][]float64{{1, math.NaN()}})))
}
