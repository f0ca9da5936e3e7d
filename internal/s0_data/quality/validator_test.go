package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityGate_Check(t *testing.T) {
	gate := NewQualityGate(DefaultConfig())
	date := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	snapshot := gate.Check(Input{
		Date:           date,
		Ticker:         "TSLA",
		PriceRows:      100,
		ValidPriceRows: 99,
		Posts:          200,
		ValidPosts:     150,
		MergedRows:     98,
		ObservedDays:   49,
	})
	require.NotNil(t, snapshot)

	assert.Equal(t, date, snapshot.Date)
	assert.Equal(t, "TSLA", snapshot.Ticker)
	assert.InDelta(t, 0.99, snapshot.Coverage["price"], 1e-9)
	assert.InDelta(t, 0.75, snapshot.Coverage["posts"], 1e-9)
	assert.InDelta(t, 0.5, snapshot.Coverage["sentiment"], 1e-9)
	assert.InDelta(t, 0.99*0.5+0.75*0.2+0.5*0.3, snapshot.QualityScore, 1e-9)
	assert.True(t, snapshot.Passed)
	assert.True(t, snapshot.IsValid())
}

func TestQualityGate_CheckFailsOnSparseSentiment(t *testing.T) {
	gate := NewQualityGate(DefaultConfig())

	snapshot := gate.Check(Input{
		PriceRows:      30,
		ValidPriceRows: 30,
		Posts:          10,
		ValidPosts:     10,
		MergedRows:     29,
		ObservedDays:   2,
	})

	assert.False(t, snapshot.Passed)
	assert.Less(t, snapshot.Coverage["sentiment"], 0.1)
}

func TestQualityGate_CheckEmptyInput(t *testing.T) {
	snapshot := NewQualityGate(DefaultConfig()).Check(Input{})

	assert.Equal(t, 0.0, snapshot.QualityScore)
	assert.False(t, snapshot.Passed)
	assert.False(t, snapshot.IsValid())
}
