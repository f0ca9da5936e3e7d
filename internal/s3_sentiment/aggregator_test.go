package s3_sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/internal/contracts"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func scored(date time.Time, compound float64) contracts.ScoredPost {
	return contracts.ScoredPost{
		Date:      date,
		Timestamp: date.Add(10 * time.Hour),
		Text:      "some text here",
		Sentiment: contracts.SentimentScore{Compound: compound},
		Topic:     contracts.TopicLabel{ID: contracts.NoTopic},
	}
}

func TestAggregate_MeanPerDay(t *testing.T) {
	series := Aggregate([]contracts.ScoredPost{
		scored(day(3), 0.5),
		scored(day(1), 0.2),
		scored(day(1), 0.4),
		scored(day(3), math.NaN()),
	})

	require.Equal(t, 2, series.Len())
	days := series.Days()
	assert.Equal(t, day(1), days[0].Date)
	assert.InDelta(t, 0.3, days[0].Score, 1e-12)
	assert.Equal(t, 2, days[0].PostCount)

	assert.Equal(t, day(3), days[1].Date)
	assert.InDelta(t, 0.5, days[1].Score, 1e-12)
	assert.Equal(t, 1, days[1].PostCount)
}

func TestAggregate_UsesTimestampWhenDateMissing(t *testing.T) {
	p := contracts.ScoredPost{
		Timestamp: time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC),
		Sentiment: contracts.SentimentScore{Compound: -0.6},
	}
	series := Aggregate([]contracts.ScoredPost{p})

	v, ok := series.Get(day(5))
	require.True(t, ok)
	assert.InDelta(t, -0.6, v, 1e-12)
}

func TestAggregate_Empty(t *testing.T) {
	series := Aggregate(nil)
	assert.Equal(t, 0, series.Len())

	_, _, ok := series.LatestOnOrBefore(day(10))
	assert.False(t, ok)
}

func TestSentimentSeries_LatestOnOrBefore(t *testing.T) {
	series := NewSeries([]DailySentiment{
		{Date: day(6), Score: 0.6},
		{Date: day(2), Score: 0.2},
		{Date: day(4), Score: 0.4},
	})

	tests := []struct {
		name   string
		date   time.Time
		want   float64
		from   time.Time
		wantOK bool
	}{
		{"before first", day(1), 0, time.Time{}, false},
		{"exact first", day(2), 0.2, day(2), true},
		{"gap carries previous", day(3), 0.2, day(2), true},
		{"exact middle", day(4), 0.4, day(4), true},
		{"intraday time", day(5).Add(15 * time.Hour), 0.4, day(4), true},
		{"after last", day(20), 0.6, day(6), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, from, ok := series.LatestOnOrBefore(tt.date)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, v, 1e-12)
			assert.Equal(t, tt.from, from)
		})
	}
}

func TestSentimentSeries_NeverLooksForward(t *testing.T) {
	series := NewSeries([]DailySentiment{{Date: day(10), Score: 0.9}})

	for d := 1; d < 10; d++ {
		_, _, ok := series.LatestOnOrBefore(day(d))
		assert.False(t, ok, "day %d must not see day 10", d)
	}
}

func TestNewSeries_LaterDuplicateWins(t *testing.T) {
	series := NewSeries([]DailySentiment{
		{Date: day(2), Score: 0.1},
		{Date: day(2).Add(3 * time.Hour), Score: 0.7},
	})

	require.Equal(t, 1, series.Len())
	v, ok := series.Get(day(2))
	require.True(t, ok)
	assert.InDelta(t, 0.7, v, 1e-12)
}

func TestSummarizeTopics(t *testing.T) {
	a := scored(day(1), 0.2)
	a.Topic = contracts.TopicLabel{ID: 1, Keywords: "tesla_model_delivery"}
	a.Sentiment.HasProbabilities = true
	a.Sentiment.Positive, a.Sentiment.Negative, a.Sentiment.Neutral = 0.6, 0.1, 0.3

	b := scored(day(2), 0.6)
	b.Topic = contracts.TopicLabel{ID: 1}

	c := scored(day(2), -0.4)

	got := SummarizeTopics([]contracts.ScoredPost{a, b, c})
	require.Len(t, got, 2)

	assert.Equal(t, contracts.NoTopic, got[0].TopicID)
	assert.Equal(t, 1, got[0].PostCount)
	assert.InDelta(t, -0.4, got[0].MeanCompound, 1e-12)
	assert.Equal(t, 0, got[0].ProbCount)

	assert.Equal(t, 1, got[1].TopicID)
	assert.Equal(t, "tesla_model_delivery", got[1].Keywords)
	assert.Equal(t, 2, got[1].PostCount)
	assert.InDelta(t, 0.4, got[1].MeanCompound, 1e-12)
	assert.Equal(t, 1, got[1].ProbCount)
	assert.InDelta(t, 0.6, got[1].MeanPositive, 1e-12)
}
