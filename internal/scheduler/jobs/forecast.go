package jobs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wonny/sentiforecast/internal/brain"
	"github.com/wonny/sentiforecast/pkg/logger"
)

// DefaultPipelineSchedule 평일 18:30 (장 마감 후, 초 포함)
const DefaultPipelineSchedule = "0 30 18 * * 1-5"

// Runner runs one pipeline
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// PipelineJob runs the forecasting pipeline on a schedule.
// Every run gets a fresh run id and its own output directory under OutputDir.
type PipelineJob struct {
	runner   Runner
	base     brain.RunConfig
	schedule string
	logger   *logger.Logger

	last *brain.RunResult
}

// NewPipelineJob creates a new pipeline job. An empty schedule uses DefaultPipelineSchedule.
func NewPipelineJob(runner Runner, base brain.RunConfig, schedule string, log *logger.Logger) *PipelineJob {
	if schedule == "" {
		schedule = DefaultPipelineSchedule
	}
	return &PipelineJob{
		runner:   runner,
		base:     base,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "forecast_pipeline"
}

// Schedule returns the cron schedule
func (j *PipelineJob) Schedule() string {
	return j.schedule
}

// Last returns the result of the most recent run (nil before the first run)
func (j *PipelineJob) Last() *brain.RunResult {
	return j.last
}

// Run executes the forecast pipeline
func (j *PipelineJob) Run(ctx context.Context) error {
	cfg := j.base
	cfg.RunID = brain.GenerateRunID()
	cfg.OutputDir = filepath.Join(j.base.OutputDir, cfg.RunID)

	j.logger.WithFields(map[string]interface{}{
		"run_id": cfg.RunID,
		"ticker": cfg.Ticker,
	}).Info("Starting scheduled forecast pipeline")

	result, err := j.runner.Run(ctx, cfg)
	j.last = result
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", cfg.RunID, err)
	}

	fields := map[string]interface{}{
		"run_id": result.RunID,
		"points": len(result.Points),
	}
	if result.Metrics != nil {
		fields["mae"] = result.Metrics.MAE
		fields["mape"] = result.Metrics.MAPE
	}
	j.logger.WithFields(fields).Info("Forecast pipeline completed successfully")

	return nil
}
