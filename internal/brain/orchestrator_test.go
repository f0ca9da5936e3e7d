package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/modelconfig"
	"github.com/wonny/sentiforecast/pkg/logger"
)

// writeInputs writes a price CSV with trading days of 2024-01..04 and 2025-01
// and a pre-scored post CSV covering every calendar day of both periods.
func writeInputs(t *testing.T, scored bool) (prices, posts string) {
	t.Helper()
	dir := t.TempDir()

	var pb strings.Builder
	pb.WriteString("Date,Open,High,Low,Close,Adj Close,Volume,Ticker\n")
	i := 0
	writeDays := func(from, to time.Time) {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
				continue
			}
			c := 100 + 0.3*float64(i) + 2*math.Sin(float64(i)/3)
			fmt.Fprintf(&pb, "%s,%.2f,%.2f,%.2f,%.2f,%.2f,%d,TSLA\n",
				d.Format("2006-01-02"), c-0.5, c+1, c-1, c, c-0.1, 1000+10*i)
			i++
		}
	}
	writeDays(day(2024, 1, 2), day(2024, 4, 30))
	writeDays(day(2025, 1, 2), day(2025, 1, 31))

	var sb strings.Builder
	if scored {
		sb.WriteString("date,time,title,text,ticker,subreddit,compound\n")
	} else {
		sb.WriteString("date,time,title,text,ticker,subreddit\n")
	}
	k := 0
	writePosts := func(from, to time.Time) {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			fmt.Fprintf(&sb, "%s,10:00:00,Daily thread %d,$TSLA deliveries look strong today,TSLA,stocks", d.Format("2006-01-02"), k)
			if scored {
				fmt.Fprintf(&sb, ",%.3f", math.Sin(float64(k)/5))
			}
			sb.WriteString("\n")
			k++
		}
	}
	writePosts(day(2023, 12, 31), day(2024, 4, 30))
	writePosts(day(2024, 12, 31), day(2025, 1, 31))

	prices = filepath.Join(dir, "prices.csv")
	posts = filepath.Join(dir, "posts.csv")
	require.NoError(t, os.WriteFile(prices, []byte(pb.String()), 0o644))
	require.NoError(t, os.WriteFile(posts, []byte(sb.String()), 0o644))
	return prices, posts
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func smallModel() *modelconfig.Config {
	cfg := modelconfig.Default()
	cfg.Window.SeqLength = 5
	cfg.Window.Horizon = 3
	cfg.Training.Epochs = 3
	cfg.Training.HiddenUnits = 4
	cfg.Training.BatchSize = 8
	return cfg
}

func baseConfig(t *testing.T) RunConfig {
	prices, posts := writeInputs(t, true)
	return RunConfig{
		Ticker:     "TSLA",
		PricesPath: prices,
		PostsPath:  posts,
		OutputDir:  filepath.Join(t.TempDir(), "out"),
		Model:      smallModel(),
		TrainYears: []int{2024},
		TestYears:  []int{2025},
	}
}

type constScorer struct{ calls int }

func (s *constScorer) Score(_ context.Context, texts []string) ([]contracts.SentimentScore, error) {
	s.calls++
	out := make([]contracts.SentimentScore, len(texts))
	for i := range out {
		out[i] = contracts.SentimentScore{Compound: 0.25}
	}
	return out, nil
}

func TestRun_DirectWithHoldout(t *testing.T) {
	cfg := baseConfig(t)
	o := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop())

	result, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.ConfigHash, 64)
	assert.Len(t, result.CompletedStages, len(contracts.AllStages()))
	for i, s := range contracts.AllStages() {
		assert.Equal(t, s.String(), result.CompletedStages[i])
	}

	// 첫 행은 log_momentum NaN으로 제거
	assert.Equal(t, 1, result.Build.Clean.Dropped()+result.Build.NonFinite)
	assert.Equal(t, 22, result.TestRows)
	assert.Equal(t, result.TrainRows-5-3+1, result.Windows)

	require.Len(t, result.Points, 3)
	wantDates := []string{"2025-01-02", "2025-01-03", "2025-01-06"}
	for i, p := range result.Points {
		assert.Equal(t, wantDates[i], contracts.DateKey(p.Date))
		assert.Equal(t, i+1, p.Step)
		require.NotNil(t, p.Real)
		assert.False(t, math.IsNaN(p.Predicted))
	}
	require.NotNil(t, result.Metrics)
	assert.Equal(t, 3, result.Metrics.Count)
	assert.LessOrEqual(t, result.ErrorBandLow, result.ErrorBandHigh)

	require.NotNil(t, result.QualitySnapshot)
	assert.Equal(t, "TSLA", result.QualitySnapshot.Ticker)
	assert.InDelta(t, 1.0, result.QualitySnapshot.Coverage["sentiment"], 1e-9)

	for _, kind := range []string{"features", "forecast", "posts", "summary"} {
		assert.FileExists(t, result.Outputs[kind])
	}
	assert.Equal(t, filepath.Join(cfg.OutputDir, "features.csv"), result.Outputs["features"])

	data, err := os.ReadFile(result.Outputs["forecast"])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "Date,Predicted_Adj_Close,Real_Adj_Close", lines[0])
	assert.Len(t, lines, 4)

	raw, err := os.ReadFile(result.Outputs["summary"])
	require.NoError(t, err)
	var summary map[string]any
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, result.RunID, summary["run_id"])
	assert.Equal(t, true, summary["success"])
}

func TestRun_Deterministic(t *testing.T) {
	cfg := baseConfig(t)
	o := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop())

	a, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)
	cfg.OutputDir = filepath.Join(t.TempDir(), "again")
	b, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.ConfigHash, b.ConfigHash)
	require.Len(t, b.Points, len(a.Points))
	for i := range a.Points {
		assert.Equal(t, a.Points[i].Predicted, b.Points[i].Predicted)
	}
}

func TestRun_NoHoldout(t *testing.T) {
	cfg := baseConfig(t)
	cfg.TestYears = nil
	cfg.To = day(2024, 12, 31)
	o := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop())

	result, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 0, result.TestRows)
	assert.Nil(t, result.Metrics)
	require.Len(t, result.Points, 3)
	// 2024-04-30(화) 이후 연속 캘린더 일자
	wantDates := []string{"2024-05-01", "2024-05-02", "2024-05-03"}
	for i, p := range result.Points {
		assert.Equal(t, wantDates[i], contracts.DateKey(p.Date))
		assert.Nil(t, p.Real)
	}

	data, err := os.ReadFile(result.Outputs["forecast"])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Predicted_Adj_Close\n"))
}

func TestRun_Autoregressive(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Model.Window.Mode = string(contracts.ModeAutoregressive)
	cfg.Model.Window.Steps = 7
	cfg.FeatureFormat = "parquet"
	o := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop())

	result, err := o.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, contracts.ModeAutoregressive, result.Mode)
	// 자기회귀 모드는 1-step 타깃 윈도우
	assert.Equal(t, result.TrainRows-5-1+1, result.Windows)
	require.Len(t, result.Points, 7)
	assert.Equal(t, 7, result.Metrics.Count)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "features.parquet"), result.Outputs["features"])
	assert.FileExists(t, result.Outputs["features"])
}

func TestRun_Scorer(t *testing.T) {
	cfg := baseConfig(t)
	prices, posts := writeInputs(t, false)
	cfg.PricesPath, cfg.PostsPath = prices, posts

	// 점수가 없는 게시글 + scorer 없음 → S1 실패
	_, err := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop()).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, contracts.IsDataValidation(err))
	assert.NoDirExists(t, cfg.OutputDir)

	scorer := &constScorer{}
	result, err := NewOrchestrator(scorer, nil, nil, nil, nil, logger.Nop()).WithBatchSize(50).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Greater(t, scorer.calls, 1)
	assert.Equal(t, result.Annotate.Kept, result.Annotate.Scored)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, contracts.NoTopic, result.Topics[0].TopicID)
	assert.InDelta(t, 0.25, result.Topics[0].MeanCompound, 1e-9)
}

func TestRun_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *RunConfig)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "test years before train years",
			mutate: func(c *RunConfig) { c.TrainYears, c.TestYears = []int{2025}, []int{2024} },
			check:  func(t *testing.T, err error) { assert.True(t, contracts.IsDataValidation(err)) },
		},
		{
			name:   "window longer than train rows",
			mutate: func(c *RunConfig) { c.Model.Window.SeqLength = 500 },
			check:  func(t *testing.T, err error) { assert.True(t, contracts.IsInsufficientData(err)) },
		},
		{
			name:   "invalid model config",
			mutate: func(c *RunConfig) { c.Model.Training.Epochs = 0 },
			check: func(t *testing.T, err error) {
				var verr modelconfig.ValidationError
				assert.ErrorAs(t, err, &verr)
			},
		},
		{
			name:   "missing prices file",
			mutate: func(c *RunConfig) { c.PricesPath = filepath.Join(t.TempDir(), "none.csv") },
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, os.ErrNotExist) },
		},
		{
			name:   "strict quality gate",
			mutate: func(c *RunConfig) { c.StrictQuality = true; c.PostsPath = sparsePosts(t) },
			check:  func(t *testing.T, err error) { assert.Contains(t, err.Error(), "quality gate failed") },
		},
		{
			name:   "unsupported feature format",
			mutate: func(c *RunConfig) { c.FeatureFormat = "xlsx" },
			check:  func(t *testing.T, err error) { assert.Contains(t, err.Error(), "S7") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(&cfg)

			result, err := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop()).Run(context.Background(), cfg)
			require.Error(t, err)
			tt.check(t, err)
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.ErrorMessage)
			assert.NoDirExists(t, cfg.OutputDir)

			// staging dir도 남지 않음
			entries, err := os.ReadDir(filepath.Dir(cfg.OutputDir))
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRun_PublishFailureLeavesNoOutputs(t *testing.T) {
	cfg := baseConfig(t)
	// posts.csv 자리에 비어 있지 않은 디렉터리가 있으면 게시 도중 rename 실패
	blocker := filepath.Join(cfg.OutputDir, "posts.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "old"), 0o755))

	result, err := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop()).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish outputs")
	assert.False(t, result.Success)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "posts.csv", entries[0].Name())
	assert.True(t, entries[0].IsDir())

	entries, err = os.ReadDir(filepath.Dir(cfg.OutputDir))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out", entries[0].Name())
}

// sparsePosts has one post per month, so most merged rows are forward filled
func sparsePosts(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("date,text,ticker,compound\n")
	for m := time.January; m <= time.April; m++ {
		fmt.Fprintf(&sb, "%s,monthly $TSLA outlook thread,TSLA,0.1\n", day(2024, m, 1).AddDate(0, 0, -1).Format("2006-01-02"))
	}
	fmt.Fprintf(&sb, "2025-01-01,new year $TSLA outlook thread,TSLA,0.2\n")
	path := filepath.Join(t.TempDir(), "sparse.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestRun_Cancelled(t *testing.T) {
	cfg := baseConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewOrchestrator(nil, nil, nil, nil, nil, logger.Nop()).Run(ctx, cfg)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.CompletedStages)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	assert.True(t, strings.HasPrefix(a, "run_"))
	assert.NotEqual(t, a, b)
}
