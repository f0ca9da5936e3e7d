package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/forecast"
	"github.com/wonny/sentiforecast/internal/modelconfig"
	"github.com/wonny/sentiforecast/internal/s0_data"
	"github.com/wonny/sentiforecast/internal/s0_data/quality"
	"github.com/wonny/sentiforecast/internal/s2_features"
	"github.com/wonny/sentiforecast/internal/s3_sentiment"
	"github.com/wonny/sentiforecast/internal/s4_dataset"
	"github.com/wonny/sentiforecast/internal/s5_window"
	"github.com/wonny/sentiforecast/internal/saver"
	"github.com/wonny/sentiforecast/pkg/logger"
)

// Output file names inside RunConfig.OutputDir
const (
	FeaturesFile = "features"
	ForecastFile = "forecast.csv"
	PostsFile    = "posts.csv"
	SummaryFile  = "summary.json"
)

// errorBandPercentile 예측 오차 밴드 (10% ~ 90%)
const errorBandPercentile = 10

// Orchestrator coordinates the 8-stage forecasting pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Collaborators (scorer는 사전 점수 CSV만 쓸 때 nil 가능)
	scorer      s3_sentiment.Scorer
	topics      s3_sentiment.TopicClassifier
	qualityGate *quality.QualityGate
	batchSize   int

	// Repositories (nil이면 DB 저장 생략)
	qualityRepo  *quality.Repository
	forecastRepo *forecast.Repository

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID      string // 비어 있으면 uuid 생성
	Ticker     string
	PricesPath string
	PostsPath  string
	OutputDir  string

	Model      *modelconfig.Config // nil이면 modelconfig.Default()
	TrainYears []int
	TestYears  []int // 비어 있으면 홀드아웃 없음

	From time.Time // 0이면 제한 없음
	To   time.Time

	PostSource    contracts.PostSource // source/subreddit 컬럼이 없을 때
	StripHTML     bool
	FeatureFormat string // csv | parquet
	StrictQuality bool   // 품질 게이트 실패 시 중단
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string                    `json:"run_id"`
	Ticker          string                    `json:"ticker"`
	ConfigHash      string                    `json:"config_hash"`
	Mode            contracts.ForecastMode    `json:"mode"`
	Success         bool                      `json:"success"`
	Error           error                     `json:"-"`
	ErrorMessage    string                    `json:"error,omitempty"`
	CompletedStages []string                  `json:"completed_stages"`
	Stages          []contracts.PipelineResult `json:"stages"`

	Prices   s0_data.PriceStats        `json:"prices"`
	Posts    s0_data.PostStats         `json:"posts"`
	Annotate s3_sentiment.AnnotateStats `json:"annotate"`
	Build    s2_features.BuildStats     `json:"build"`
	Merge    s4_dataset.MergeStats      `json:"merge"`

	QualitySnapshot *contracts.DataQualitySnapshot `json:"quality,omitempty"`
	Topics          []s3_sentiment.TopicSummary    `json:"topics,omitempty"`
	SentimentDays   int                            `json:"sentiment_days"`
	TrainRows       int                            `json:"train_rows"`
	TestRows        int                            `json:"test_rows"`
	Windows         int                            `json:"windows"`
	Train           *forecast.TrainReport          `json:"train,omitempty"`
	Points          []contracts.ForecastPoint      `json:"points,omitempty"`
	Metrics         *contracts.ForecastMetrics     `json:"metrics,omitempty"`
	ErrorBandLow    float64                        `json:"error_band_low,omitempty"`
	ErrorBandHigh   float64                        `json:"error_band_high,omitempty"`
	Outputs         map[string]string              `json:"outputs,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// NewOrchestrator creates a new orchestrator.
// qualityRepo and forecastRepo may be nil when no database is configured.
func NewOrchestrator(
	scorer s3_sentiment.Scorer,
	topics s3_sentiment.TopicClassifier,
	qualityGate *quality.QualityGate,
	qualityRepo *quality.Repository,
	forecastRepo *forecast.Repository,
	logger *logger.Logger,
) *Orchestrator {
	if qualityGate == nil {
		qualityGate = quality.NewQualityGate(quality.DefaultConfig())
	}
	return &Orchestrator{
		scorer:       scorer,
		topics:       topics,
		qualityGate:  qualityGate,
		qualityRepo:  qualityRepo,
		forecastRepo: forecastRepo,
		logger:       logger,
	}
}

// WithBatchSize sets the number of texts per scoring call
func (o *Orchestrator) WithBatchSize(n int) *Orchestrator {
	o.batchSize = n
	return o
}

// runState 스테이지 사이에 전달되는 중간 결과
type runState struct {
	cfg     contracts.ForecastConfig
	prices  []contracts.RawPriceRow
	posts   []contracts.Post
	scored  []contracts.ScoredPost
	rows    []contracts.DailyFeatureRow
	series  s3_sentiment.SentimentSeries
	dataset *s4_dataset.Dataset
	windows []contracts.Window
	history *s5_window.History
	model   *forecast.Model
	staging *saver.Staging
}

// Run executes the complete pipeline
// S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7
// Stages run strictly in order; ctx is checked before each stage.
// Output files are only written in S7, after every other stage succeeded.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}
	if config.Model == nil {
		config.Model = modelconfig.Default()
	}

	result := &RunResult{
		RunID:           config.RunID,
		Ticker:          config.Ticker,
		Mode:            contracts.ForecastMode(config.Model.Window.Mode),
		CompletedStages: make([]string, 0, len(contracts.AllStages())),
		StartedAt:       startTime,
	}

	hash, err := modelconfig.Hash(config.Model)
	if err != nil {
		return o.fail(ctx, result, fmt.Errorf("hash model config: %w", err))
	}
	result.ConfigHash = hash

	if err := modelconfig.Validate(config.Model); err != nil {
		return o.fail(ctx, result, fmt.Errorf("model config: %w", err))
	}
	for _, w := range modelconfig.Warn(config.Model) {
		o.logger.WithField("code", w.Code).Warn(w.Message)
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":      config.RunID,
		"ticker":      config.Ticker,
		"config_hash": hash,
		"mode":        config.Model.Window.Mode,
		"train_years": config.TrainYears,
		"test_years":  config.TestYears,
	}).Info("Starting pipeline run")

	st := &runState{cfg: config.Model.Forecast()}
	defer func() {
		// 커밋되지 않은 출력은 폐기
		if st.staging != nil {
			_ = st.staging.Discard()
		}
	}()

	stages := []struct {
		stage contracts.Stage
		fn    func() (in, out int, err error)
	}{
		{contracts.StageIngest, func() (int, int, error) { return o.runS0(config, st, result) }},
		{contracts.StageText, func() (int, int, error) { return o.runS1(ctx, st, result) }},
		{contracts.StageFeatures, func() (int, int, error) { return o.runS2(ctx, st, result) }},
		{contracts.StageSentiment, func() (int, int, error) { return o.runS3(st, result) }},
		{contracts.StageDataset, func() (int, int, error) { return o.runS4(config, st, result) }},
		{contracts.StageWindow, func() (int, int, error) { return o.runS5(st, result) }},
		{contracts.StageForecast, func() (int, int, error) { return o.runS6(ctx, st, result) }},
		{contracts.StageOutput, func() (int, int, error) { return o.runS7(config, st, result) }},
	}

	for _, s := range stages {
		if err := o.runStage(ctx, result, s.stage, s.fn); err != nil {
			return o.fail(ctx, result, err)
		}
	}

	// Mark success
	result.Success = true
	result.Duration = time.Since(startTime)

	// summary까지 staging에 쓴 뒤 한 번에 공개
	if err := saver.SaveJSON(result, st.staging.Path(SummaryFile)); err != nil {
		result.Success = false
		return o.fail(ctx, result, fmt.Errorf("save summary: %w", err))
	}
	if err := st.staging.Commit(); err != nil {
		result.Success = false
		return o.fail(ctx, result, fmt.Errorf("publish outputs: %w", err))
	}

	if err := o.persist(ctx, config, st, result); err != nil {
		// 파일 출력은 이미 완료됨: DB 실패는 실행 실패로 기록
		result.Success = false
		result.Error = err
		result.ErrorMessage = err.Error()
		return result, err
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":   config.RunID,
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// runStage runs one stage and records its PipelineResult
func (o *Orchestrator) runStage(ctx context.Context, result *RunResult, stage contracts.Stage, fn func() (int, int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s cancelled: %w", stage.ShortName(), err)
	}

	o.logger.Infof("Running %s: %s", stage.ShortName(), stage.Description())
	start := time.Now()
	in, out, err := fn()

	pr := contracts.PipelineResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    time.Since(start).Milliseconds(),
	}
	if err != nil {
		pr.Error = err.Error()
	}
	result.Stages = append(result.Stages, pr)

	if err != nil {
		return fmt.Errorf("%s failed: %w", stage.ShortName(), err)
	}
	result.CompletedStages = append(result.CompletedStages, stage.String())

	o.logger.WithFields(map[string]interface{}{
		"input":  in,
		"output": out,
	}).Infof("%s completed", stage.ShortName())
	return nil
}

// runS0 executes S0: load price and post CSVs
func (o *Orchestrator) runS0(config RunConfig, st *runState, result *RunResult) (int, int, error) {
	prices, priceStats, err := s0_data.LoadPricesFile(config.PricesPath)
	if err != nil {
		return 0, 0, fmt.Errorf("load prices: %w", err)
	}
	result.Prices = priceStats
	prices = s0_data.FilterPricesByTicker(prices, config.Ticker)
	st.prices = s0_data.FilterPricesByRange(prices, config.From, config.To)

	posts, postStats, err := s0_data.LoadPostsFile(config.PostsPath, s0_data.PostOptions{
		DefaultSource: config.PostSource,
		DefaultTicker: config.Ticker,
		StripHTML:     config.StripHTML,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("load posts: %w", err)
	}
	result.Posts = postStats
	st.posts = s0_data.FilterPosts(posts, config.Ticker, config.From, config.To)

	return priceStats.Rows + postStats.Rows, len(st.prices) + len(st.posts), nil
}

// runS1 executes S1: normalize, filter and score posts
func (o *Orchestrator) runS1(ctx context.Context, st *runState, result *RunResult) (int, int, error) {
	annotator := s3_sentiment.NewAnnotator(o.scorer, o.topics, st.cfg.MinWords, o.batchSize, o.logger.Zerolog())

	scored, stats, err := annotator.Annotate(ctx, st.posts)
	result.Annotate = stats
	if err != nil {
		return len(st.posts), 0, fmt.Errorf("annotate posts: %w", err)
	}
	st.scored = scored
	result.Topics = s3_sentiment.SummarizeTopics(scored)

	return len(st.posts), len(scored), nil
}

// runS2 executes S2: clean prices and derive indicators
func (o *Orchestrator) runS2(ctx context.Context, st *runState, result *RunResult) (int, int, error) {
	builder := s2_features.NewBuilder(st.cfg.Features, o.logger)

	rows, stats, err := builder.Build(ctx, st.prices)
	result.Build = stats
	if err != nil {
		return len(st.prices), 0, fmt.Errorf("build features: %w", err)
	}
	st.rows = rows

	return len(st.prices), len(rows), nil
}

// runS3 executes S3: daily sentiment aggregation
func (o *Orchestrator) runS3(st *runState, result *RunResult) (int, int, error) {
	st.series = s3_sentiment.Aggregate(st.scored)
	result.SentimentDays = st.series.Len()

	if st.series.Len() == 0 {
		return len(st.scored), 0, &contracts.InsufficientDataError{
			Stage: contracts.StageSentiment, What: "days with sentiment", Have: 0, Need: 1,
		}
	}
	return len(st.scored), st.series.Len(), nil
}

// runS4 executes S4: merge, split, scale and the quality gate
func (o *Orchestrator) runS4(config RunConfig, st *runState, result *RunResult) (int, int, error) {
	ds, err := s4_dataset.Prepare(st.rows, st.series, s4_dataset.Options{
		Features:     st.cfg.Features,
		TargetColumn: st.cfg.TargetColumn,
		TrainYears:   config.TrainYears,
		TestYears:    config.TestYears,
	})
	if err != nil {
		return len(st.rows), 0, err
	}
	st.dataset = ds
	result.Merge = ds.Merge
	result.TrainRows = len(ds.Train)
	result.TestRows = len(ds.Test)

	snapshot := o.qualityGate.Check(quality.Input{
		Date:           time.Now(),
		Ticker:         config.Ticker,
		PriceRows:      result.Prices.Rows,
		ValidPriceRows: len(st.rows),
		Posts:          result.Posts.Rows,
		ValidPosts:     len(st.scored),
		MergedRows:     ds.Merge.Kept,
		ObservedDays:   ds.Merge.Observed,
	})
	result.QualitySnapshot = snapshot

	if !snapshot.Passed {
		o.logger.WithFields(map[string]interface{}{
			"quality_score": snapshot.QualityScore,
			"coverage":      snapshot.Coverage,
		}).Warn("quality gate not passed")
		if config.StrictQuality {
			return len(st.rows), 0, fmt.Errorf("quality gate failed: score=%.2f", snapshot.QualityScore)
		}
	}

	return len(st.rows), ds.Merge.Kept, nil
}

// runS5 executes S5: window the scaled train matrix
func (o *Orchestrator) runS5(st *runState, result *RunResult) (int, int, error) {
	ds := st.dataset
	windows, err := s5_window.MakeWindows(ds.TrainMatrix, st.cfg.SeqLength, st.cfg.OutputSize(), ds.TargetIndex)
	if err != nil {
		return len(ds.TrainMatrix), 0, err
	}
	if err := s5_window.RequireWindows(windows, 1); err != nil {
		return len(ds.TrainMatrix), 0, err
	}
	st.windows = windows
	result.Windows = len(windows)

	// 예측 시작점: 학습 구간의 마지막 seq_length 행
	history, err := s5_window.HistoryFrom(ds.TrainMatrix, st.cfg.SeqLength)
	if err != nil {
		return len(ds.TrainMatrix), len(windows), err
	}
	st.history = history

	return len(ds.TrainMatrix), len(windows), nil
}

// runS6 executes S6: train, forecast and evaluate against the holdout
func (o *Orchestrator) runS6(ctx context.Context, st *runState, result *RunResult) (int, int, error) {
	log := o.logger.Zerolog()
	ds := st.dataset

	model, report, err := forecast.NewTrainer(st.cfg, log).Train(ctx, st.windows)
	if err != nil {
		return len(st.windows), 0, fmt.Errorf("train: %w", err)
	}
	st.model = model
	result.Train = report

	f := forecast.NewForecaster(model, st.cfg, ds.TargetIndex, ds.FeatureScaler, ds.TargetScaler, log)
	steps := st.cfg.ForecastSteps()
	predicted, err := f.Predict(ctx, st.history, steps)
	if err != nil {
		return len(st.windows), 0, fmt.Errorf("forecast: %w", err)
	}

	last := ds.Train[len(ds.Train)-1]
	holdout := make([]time.Time, 0, len(ds.Test))
	for _, r := range ds.Test {
		holdout = append(holdout, r.Date)
	}
	actual := ds.TargetValues(ds.Test)
	if len(actual) > steps {
		actual = actual[:steps]
	}

	dates := forecast.ForecastDates(last.Date, holdout, steps)
	result.Points = forecast.BuildPoints(dates, predicted, actual)

	if len(actual) > 0 {
		lastKnown := ds.TargetValues([]contracts.DailyFeatureRow{last})[0]
		metrics := forecast.Evaluate(predicted[:len(actual)], actual, lastKnown)
		result.Metrics = &metrics
		result.ErrorBandLow, result.ErrorBandHigh = forecast.ErrorBand(predicted[:len(actual)], actual, errorBandPercentile)
		o.logger.Infof("holdout evaluation: %s", metrics.String())
	}

	return len(st.windows), len(result.Points), nil
}

// runS7 executes S7: write features, forecast and posts into a staging dir.
// Run adds the summary and publishes the staging dir once every stage has completed.
func (o *Orchestrator) runS7(config RunConfig, st *runState, result *RunResult) (int, int, error) {
	if config.OutputDir == "" {
		return 0, 0, errors.New("output dir is required")
	}

	fs, err := saver.NewFeatureSaver(config.FeatureFormat)
	if err != nil {
		return 0, 0, err
	}

	stage, err := saver.NewStaging(config.OutputDir)
	if err != nil {
		return 0, 0, err
	}
	st.staging = stage

	ds := st.dataset
	merged := append(append([]contracts.DailyFeatureRow{}, ds.Train...), ds.Test...)
	featuresFile := FeaturesFile + "." + fs.Extension()
	outputs := map[string]string{
		"features": stage.Final(featuresFile),
		"forecast": stage.Final(ForecastFile),
		"posts":    stage.Final(PostsFile),
		"summary":  stage.Final(SummaryFile),
	}

	if err := fs.SaveFeatures(merged, ds.Columns, stage.Path(featuresFile)); err != nil {
		return 0, 0, fmt.Errorf("save features: %w", err)
	}
	if err := saver.SaveForecast(result.Points, st.cfg.TargetColumn, stage.Path(ForecastFile)); err != nil {
		return 0, 1, fmt.Errorf("save forecast: %w", err)
	}
	if err := saver.SavePosts(st.scored, stage.Path(PostsFile)); err != nil {
		return 0, 2, fmt.Errorf("save posts: %w", err)
	}

	result.Outputs = outputs

	return len(merged) + len(result.Points), 3, nil
}

// persist stores the run in the database when repositories are configured
func (o *Orchestrator) persist(ctx context.Context, config RunConfig, st *runState, result *RunResult) error {
	if o.qualityRepo != nil && result.QualitySnapshot != nil {
		if err := o.qualityRepo.SaveSnapshot(ctx, result.RunID, result.QualitySnapshot); err != nil {
			return err
		}
	}
	if o.forecastRepo == nil {
		return nil
	}

	if err := o.forecastRepo.SaveRun(ctx, runRecord(result)); err != nil {
		return err
	}
	if err := o.forecastRepo.SavePoints(ctx, result.RunID, config.Ticker, result.Points); err != nil {
		return err
	}
	merged := append(append([]contracts.DailyFeatureRow{}, st.dataset.Train...), st.dataset.Test...)
	return o.forecastRepo.SaveFeatures(ctx, config.Ticker, merged)
}

// fail records a failed run and returns its error
func (o *Orchestrator) fail(ctx context.Context, result *RunResult, err error) (*RunResult, error) {
	result.Error = err
	result.ErrorMessage = err.Error()
	result.Duration = time.Since(result.StartedAt)

	o.logger.WithError(err).WithField("run_id", result.RunID).Error("Pipeline run failed")

	// 취소된 실행은 기록하지 않음
	if o.forecastRepo != nil && ctx.Err() == nil {
		if saveErr := o.forecastRepo.SaveRun(ctx, runRecord(result)); saveErr != nil {
			o.logger.WithError(saveErr).Warn("failed to record failed run")
		}
	}
	return result, err
}

func runRecord(result *RunResult) forecast.RunRecord {
	rec := forecast.RunRecord{
		RunID:      result.RunID,
		Ticker:     result.Ticker,
		ConfigHash: result.ConfigHash,
		Mode:       result.Mode,
		Status:     forecast.RunSuccess,
		Error:      result.ErrorMessage,
		StartedAt:  result.StartedAt,
		FinishedAt: result.StartedAt.Add(result.Duration),
		Metrics:    result.Metrics,
	}
	if !result.Success {
		rec.Status = forecast.RunFailed
	}
	if result.Train != nil {
		rec.TrainWindows = result.Train.TrainWindows
		rec.Epochs = result.Train.Epochs
		rec.BestEpoch = result.Train.BestEpoch
		rec.BestLoss = result.Train.BestLoss
	}
	return rec
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
}
