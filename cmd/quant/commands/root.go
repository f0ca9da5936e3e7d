package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	modelConfigFile string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "sentiforecast - 감성 기반 주가 예측 파이프라인",
	Long: `sentiforecast Unified CLI

소셜 게시글 감성과 가격 지표로 수정 종가를 예측합니다.
8단계 파이프라인: 로드 → 텍스트 → 지표 → 감성 → 데이터셋 → 윈도우 → 학습/예측 → 저장

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant pipeline run --prices data/prices.csv --posts data/posts.csv
  go run ./cmd/quant features build --prices data/prices.csv --format parquet
  go run ./cmd/quant text normalize < posts.txt
  go run ./cmd/quant scheduler start
  go run ./cmd/quant status`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C cancels the command context, so a running pipeline stops before writing output.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&modelConfigFile, "model-config", "", "모델 설정 YAML (기본: MODEL_CONFIG 또는 내장 기본값)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
