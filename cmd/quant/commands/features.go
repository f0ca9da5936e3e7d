package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/s0_data"
	"github.com/wonny/sentiforecast/internal/s2_features"
	"github.com/wonny/sentiforecast/internal/saver"
	"github.com/wonny/sentiforecast/pkg/config"
	"github.com/wonny/sentiforecast/pkg/logger"
)

// featuresCmd represents the features command
var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "가격 지표 테이블 생성 (S0 → S2)",
}

var (
	featuresBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "가격 CSV에서 지표 테이블 생성",
		Long: `가격 CSV를 정제하고 MA7/MA20/MACD/볼린저/EMA/로그 모멘텀을 계산합니다.
감성 컬럼은 비어 있습니다 (병합은 pipeline run에서).

Example:
  go run ./cmd/quant features build --prices data/TSLA.csv --out output/TSLA_features.csv
  go run ./cmd/quant features build --prices data/TSLA.csv --format parquet --rsi --signal`,
		RunE: runFeaturesBuild,
	}

	// Flags
	featuresPrices string
	featuresTicker string
	featuresOut    string
	featuresFormat string
	featuresFrom   string
	featuresTo     string
	featuresRSI    bool
	featuresSignal bool
)

func init() {
	rootCmd.AddCommand(featuresCmd)
	featuresCmd.AddCommand(featuresBuildCmd)

	f := featuresBuildCmd.Flags()
	f.StringVar(&featuresPrices, "prices", "", "가격 CSV 경로")
	f.StringVar(&featuresTicker, "ticker", "", "Ticker 컬럼 필터")
	f.StringVar(&featuresOut, "out", "", "출력 파일 (기본: features.<format>)")
	f.StringVar(&featuresFormat, "format", "csv", "출력 형식 (csv | parquet)")
	f.StringVar(&featuresFrom, "from", "", "시작일 (YYYY-MM-DD)")
	f.StringVar(&featuresTo, "to", "", "종료일 (YYYY-MM-DD)")
	f.BoolVar(&featuresRSI, "rsi", false, "RSI(14) 포함")
	f.BoolVar(&featuresSignal, "signal", false, "MACD 시그널 라인 포함")
	_ = featuresBuildCmd.MarkFlagRequired("prices")
}

func runFeaturesBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	from, err := parseDateFlag("from", featuresFrom)
	if err != nil {
		return err
	}
	to, err := parseDateFlag("to", featuresTo)
	if err != nil {
		return err
	}

	fs, err := saver.NewFeatureSaver(featuresFormat)
	if err != nil {
		return err
	}
	out := featuresOut
	if out == "" {
		out = "features." + fs.Extension()
	}

	raw, stats, err := s0_data.LoadPricesFile(featuresPrices)
	if err != nil {
		return err
	}
	raw = s0_data.FilterPricesByRange(s0_data.FilterPricesByTicker(raw, featuresTicker), from, to)

	opts := contracts.DefaultFeatureOptions()
	opts.IncludeRSI = featuresRSI
	opts.IncludeSignal = featuresSignal
	builder := s2_features.NewBuilder(opts, log)

	rows, build, err := builder.Build(cmd.Context(), raw)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := fs.SaveFeatures(rows, builder.Columns(), out); err != nil {
		return err
	}

	PrintHeader("Feature Build")
	PrintKeyValue("CSV rows", fmt.Sprint(stats.Rows), 14)
	PrintKeyValue("Dropped", fmt.Sprintf("clean=%d non_finite=%d", build.Clean.Dropped(), build.NonFinite), 14)
	PrintKeyValue("Feature rows", fmt.Sprint(len(rows)), 14)
	PrintKeyValue("Columns", fmt.Sprint(len(builder.Columns())), 14)
	PrintSuccess("Saved " + out)
	return nil
}
