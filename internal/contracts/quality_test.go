package contracts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataQualitySnapshot_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		snapshot DataQualitySnapshot
		want     bool
	}{
		{
			name: "valid snapshot",
			snapshot: DataQualitySnapshot{
				Date:         time.Now(),
				TotalRows:    100,
				ValidRows:    90,
				QualityScore: 0.9,
				Coverage:     map[string]float64{"price": 0.95, "sentiment": 0.90},
			},
			want: true,
		},
		{
			name: "low quality score",
			snapshot: DataQualitySnapshot{
				TotalRows:    100,
				ValidRows:    50,
				QualityScore: 0.5,
			},
			want: false,
		},
		{
			name: "no valid rows",
			snapshot: DataQualitySnapshot{
				TotalRows:    100,
				ValidRows:    0,
				QualityScore: 0.8,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snapshot.IsValid())
		})
	}
}

func TestDataQualitySnapshot_CoverageRate(t *testing.T) {
	snapshot := DataQualitySnapshot{
		Coverage: map[string]float64{
			"price":     0.95,
			"volume":    0.90,
			"sentiment": 0.85,
		},
	}

	assert.InDelta(t, (0.95+0.90+0.85)/3, snapshot.CoverageRate(), 1e-12)
	assert.Equal(t, 0.0, (&DataQualitySnapshot{}).CoverageRate())
}

func TestDataQualitySnapshot_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(DataQualitySnapshot{TotalRows: 3, QualityScore: 0.9})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "total_rows")
	assert.Contains(t, raw, "quality_score")
	assert.NotContains(t, raw, "ticker")
}
