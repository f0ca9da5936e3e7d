package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/internal/brain"
	"github.com/wonny/sentiforecast/pkg/logger"
)

type recordingRunner struct {
	configs []brain.RunConfig
	err     error
}

func (r *recordingRunner) Run(_ context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	r.configs = append(r.configs, cfg)
	return &brain.RunResult{RunID: cfg.RunID, Success: r.err == nil}, r.err
}

func TestPipelineJob(t *testing.T) {
	runner := &recordingRunner{}
	base := brain.RunConfig{Ticker: "TSLA", OutputDir: "out"}
	job := NewPipelineJob(runner, base, "", logger.Nop())

	assert.Equal(t, "forecast_pipeline", job.Name())
	assert.Equal(t, DefaultPipelineSchedule, job.Schedule())
	assert.Nil(t, job.Last())

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	require.Len(t, runner.configs, 2)
	a, b := runner.configs[0], runner.configs[1]
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, filepath.Join("out", a.RunID), a.OutputDir)
	assert.Equal(t, "TSLA", b.Ticker)
	assert.Equal(t, b.RunID, job.Last().RunID)

	runner.err = errors.New("S4 failed")
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "S4 failed"))
}

func TestOutputCleanupJob(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	ages := map[string]time.Duration{
		"run_new":    time.Hour,
		"run_old1":   10 * 24 * time.Hour,
		"run_old2":   20 * 24 * time.Hour,
		"run_oldest": 30 * 24 * time.Hour,
		// 진행 중인 실행의 staging dir
		".run_busy.123.staging": 40 * 24 * time.Hour,
	}
	for name, age := range ages {
		p := filepath.Join(dir, name)
		require.NoError(t, os.Mkdir(p, 0o755))
		require.NoError(t, os.Chtimes(p, now.Add(-age), now.Add(-age)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	job := NewOutputCleanupJob(dir, 2, 7*24*time.Hour, logger.Nop())
	job.now = func() time.Time { return now }
	require.NoError(t, job.Run(context.Background()))

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range left {
		names = append(names, e.Name())
	}
	// 최신 2개 보존, 파일과 staging dir은 대상 아님
	assert.ElementsMatch(t, []string{"run_new", "run_old1", "notes.txt", ".run_busy.123.staging"}, names)

	// 없는 디렉터리는 무시
	missing := NewOutputCleanupJob(filepath.Join(dir, "none"), 0, time.Hour, logger.Nop())
	assert.NoError(t, missing.Run(context.Background()))
}
