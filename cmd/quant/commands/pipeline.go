package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/sentiforecast/internal/brain"
	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/pkg/config"
	"github.com/wonny/sentiforecast/pkg/redis"
)

// pipelineCmd represents the pipeline command
var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "예측 파이프라인 실행",
	Long: `Brain Orchestrator가 8단계 파이프라인을 조율합니다.

S0 → S1 → S2 → S3 → S4 → S5 → S6 → S7

각 단계:
- S0: 가격/게시글 CSV 로드
- S1: 텍스트 정규화, 짧은 글 제거, 감성/토픽 점수
- S2: 가격 정제 및 기술적 지표
- S3: 일별 감성 집계
- S4: 병합(forward-fill), 연도 분할, 스케일링, 품질 게이트
- S5: 시퀀스 윈도우
- S6: 학습 및 예측 (direct | autoregressive)
- S7: features / forecast / posts / summary 저장`,
}

var (
	pipelineRunCmd = &cobra.Command{
		Use:   "run",
		Short: "파이프라인 1회 실행",
		Long: `파이프라인을 순차적으로 실행합니다.
출력은 모든 단계가 성공한 뒤에만 기록됩니다.

Example:
  go run ./cmd/quant pipeline run --prices data/TSLA.csv --posts data/reddit_TSLA.csv
  go run ./cmd/quant pipeline run --train-years 2023,2024 --test-years 2025 --format parquet
  go run ./cmd/quant pipeline run --test-years "" --model-config config/model/default.yaml`,
		RunE: runPipeline,
	}

	// Flags
	pipelineTicker     string
	pipelinePrices     string
	pipelinePosts      string
	pipelineOut        string
	pipelineTrainYears string
	pipelineTestYears  string
	pipelineFrom       string
	pipelineTo         string
	pipelineSource     string
	pipelineFormat     string
	pipelineStripHTML  bool
	pipelineStrict     bool
)

func init() {
	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.AddCommand(pipelineRunCmd)

	// 비어 있으면 환경변수(PIPELINE_*) 값 사용
	f := pipelineRunCmd.Flags()
	f.StringVar(&pipelineTicker, "ticker", "", "종목 (기본: PIPELINE_TICKER)")
	f.StringVar(&pipelinePrices, "prices", "", "가격 CSV 경로")
	f.StringVar(&pipelinePosts, "posts", "", "게시글 CSV 경로")
	f.StringVar(&pipelineOut, "out", "", "출력 디렉터리")
	f.StringVar(&pipelineTrainYears, "train-years", "", "학습 연도 (쉼표 구분)")
	f.StringVar(&pipelineTestYears, "test-years", "", "테스트 연도 (쉼표 구분, 빈 값이면 홀드아웃 없음)")
	f.StringVar(&pipelineFrom, "from", "", "시작일 (YYYY-MM-DD)")
	f.StringVar(&pipelineTo, "to", "", "종료일 (YYYY-MM-DD)")
	f.StringVar(&pipelineSource, "source", "", "게시글 출처 기본값 (reddit | twitter)")
	f.StringVar(&pipelineFormat, "format", "csv", "features 출력 형식 (csv | parquet)")
	f.BoolVar(&pipelineStripHTML, "strip-html", false, "HTML 본문에서 텍스트만 추출")
	f.BoolVar(&pipelineStrict, "strict-quality", false, "품질 게이트 실패 시 중단")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	runConfig, err := pipelineRunConfig(cmd, rt)
	if err != nil {
		return err
	}

	PrintHeader("sentiforecast Pipeline")
	PrintKeyValue("Ticker", runConfig.Ticker, 12)
	PrintKeyValue("Prices", runConfig.PricesPath, 12)
	PrintKeyValue("Posts", runConfig.PostsPath, 12)
	PrintKeyValue("Train years", fmt.Sprint(runConfig.TrainYears), 12)
	PrintKeyValue("Test years", fmt.Sprint(runConfig.TestYears), 12)
	PrintKeyValue("Mode", rt.model.Window.Mode, 12)
	PrintSeparator()

	// Execute pipeline
	result, err := rt.orchestrator().Run(ctx, runConfig)
	if err != nil {
		PrintError(fmt.Sprintf("Run %s failed", result.RunID))
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	// 최신 예측 캐시 (status 조회용)
	if rt.redis.Enabled() {
		key := redis.ForecastKey(result.Ticker, result.ConfigHash)
		if err := rt.cache.Set(ctx, key, result.Points, redis.TTLDaily); err != nil {
			rt.log.WithError(err).Warn("cache forecast")
		}
	}

	printRunResult(result)
	return nil
}

// pipelineRunConfig merges flags over the PIPELINE_* environment defaults
func pipelineRunConfig(cmd *cobra.Command, rt *runtime) (brain.RunConfig, error) {
	p := rt.cfg.Pipeline
	rc := brain.RunConfig{
		Ticker:        firstNonEmpty(pipelineTicker, p.Ticker),
		PricesPath:    firstNonEmpty(pipelinePrices, p.PricesPath),
		PostsPath:     firstNonEmpty(pipelinePosts, p.PostsPath),
		OutputDir:     firstNonEmpty(pipelineOut, p.OutputDir),
		Model:         rt.model,
		TrainYears:    p.TrainYears,
		TestYears:     p.TestYears,
		StripHTML:     pipelineStripHTML,
		FeatureFormat: pipelineFormat,
		StrictQuality: pipelineStrict,
	}

	var err error
	if cmd.Flags().Changed("train-years") {
		if rc.TrainYears, err = config.ParseIntList(pipelineTrainYears); err != nil {
			return rc, fmt.Errorf("invalid --train-years: %w", err)
		}
	}
	if cmd.Flags().Changed("test-years") {
		if rc.TestYears, err = config.ParseIntList(pipelineTestYears); err != nil {
			return rc, fmt.Errorf("invalid --test-years: %w", err)
		}
	}
	if rc.From, err = parseDateFlag("from", pipelineFrom); err != nil {
		return rc, err
	}
	if rc.To, err = parseDateFlag("to", pipelineTo); err != nil {
		return rc, err
	}
	if pipelineSource != "" {
		src, ok := contracts.ParsePostSource(pipelineSource)
		if !ok {
			return rc, fmt.Errorf("invalid --source %q", pipelineSource)
		}
		rc.PostSource = src
	}
	return rc, nil
}

func printRunResult(result *brain.RunResult) {
	fmt.Println()
	PrintSuccess("Pipeline Run Completed")
	fmt.Println()

	// Summary
	PrintKeyValue("Run ID", result.RunID, 12)
	PrintKeyValue("Config hash", result.ConfigHash[:12], 12)
	PrintKeyValue("Duration", fmt.Sprintf("%.2fs", result.Duration.Seconds()), 12)
	fmt.Println()

	// Stages
	widths := []int{14, 8, 8, 10}
	PrintTableHeader([]string{"Stage", "In", "Out", "ms"}, widths)
	for _, s := range result.Stages {
		PrintTableRow([]string{
			s.Stage.ShortName() + " " + strings.TrimPrefix(s.Stage.String(), s.Stage.ShortName()+"_"),
			fmt.Sprint(s.InputCount),
			fmt.Sprint(s.OutputCount),
			fmt.Sprint(s.Duration),
		}, widths)
	}
	fmt.Println()

	// Results
	if q := result.QualitySnapshot; q != nil {
		PrintKeyValue("Quality", fmt.Sprintf("%.2f (passed=%v)", q.QualityScore, q.Passed), 12)
	}
	PrintKeyValue("Rows", fmt.Sprintf("train=%d test=%d windows=%d", result.TrainRows, result.TestRows, result.Windows), 12)
	if t := result.Train; t != nil {
		PrintKeyValue("Training", fmt.Sprintf("epochs=%d best=%d loss=%.6f", t.Epochs, t.BestEpoch, t.BestLoss), 12)
	}
	if m := result.Metrics; m != nil {
		PrintKeyValue("Holdout", m.String(), 12)
	}
	fmt.Println()

	widths = []int{12, 14, 14}
	PrintTableHeader([]string{"Date", "Predicted", "Real"}, widths)
	for _, p := range result.Points {
		actual := "-"
		if p.Real != nil {
			actual = formatFloat(*p.Real)
		}
		PrintTableRow([]string{contracts.DateKey(p.Date), formatFloat(p.Predicted), actual}, widths)
	}
	fmt.Println()

	for _, kind := range []string{"features", "forecast", "posts", "summary"} {
		PrintKeyValue(kind, result.Outputs[kind], 12)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
