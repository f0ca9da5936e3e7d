package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentiforecast/internal/contracts"
	"github.com/wonny/sentiforecast/internal/forecast"
	"github.com/wonny/sentiforecast/internal/modelconfig"
	"github.com/wonny/sentiforecast/internal/s0_data/quality"
	"github.com/wonny/sentiforecast/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "설정 및 저장소 상태 조회",
	Long: `현재 설정, 모델 설정 해시/경고, DB/Redis 연결 상태와
최근 실행 기록을 표시합니다.

Example:
  go run ./cmd/quant status
  go run ./cmd/quant status --runs 10`,
	RunE: runStatus,
}

var statusRuns int

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusRuns, "runs", 5, "표시할 최근 실행 수")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Config
	PrintHeader("Configuration")
	p := rt.cfg.Pipeline
	PrintKeyValue("ENV", rt.cfg.Env, 14)
	PrintKeyValue("Ticker", p.Ticker, 14)
	PrintKeyValue("Train/Test", fmt.Sprintf("%v / %v", p.TrainYears, p.TestYears), 14)
	PrintKeyValue("Schedule", p.Schedule, 14)
	PrintKeyValue("Inference", orNone(rt.cfg.Inference.BaseURL), 14)

	// Model config
	PrintHeader("Model")
	hash, err := modelconfig.Hash(rt.model)
	if err != nil {
		return err
	}
	fc := rt.model.Forecast()
	PrintKeyValue("Config hash", hash[:12], 14)
	PrintKeyValue("Mode", string(fc.Mode), 14)
	PrintKeyValue("Window", fmt.Sprintf("seq=%d horizon=%d steps=%d", fc.SeqLength, fc.Horizon, fc.ForecastSteps()), 14)
	PrintKeyValue("Columns", fmt.Sprint(len(contracts.FeatureColumns(fc.Features))), 14)
	for _, w := range modelconfig.Warn(rt.model) {
		PrintWarning(fmt.Sprintf("%s: %s", w.Code, w.Message))
	}

	// Stores
	PrintHeader("Stores")
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if rt.db == nil {
		PrintInfo("Database: not configured (DATABASE_URL)")
	} else {
		status, err := rt.db.HealthCheck(checkCtx)
		if err != nil {
			PrintError("Database: " + err.Error())
		} else {
			PrintSuccess(fmt.Sprintf("Database %s (%v, conns=%d/%d)",
				redactURL(rt.cfg.Database.URL), status.ResponseTime, status.Stats.TotalConns, status.Stats.MaxConns))
		}
	}

	if !rt.redis.Enabled() {
		PrintInfo("Redis: disabled (REDIS_ENABLED)")
	} else if err := rt.redis.Ping(checkCtx); err != nil {
		PrintError("Redis: " + err.Error())
	} else {
		PrintSuccess(fmt.Sprintf("Redis %s:%s", rt.cfg.Redis.Host, rt.cfg.Redis.Port))

		var points []contracts.ForecastPoint
		found, err := rt.cache.Get(checkCtx, redis.ForecastKey(p.Ticker, hash), &points)
		if err == nil && found {
			PrintInfo(fmt.Sprintf("Cached forecast for %s: %d points", p.Ticker, len(points)))
		}
	}

	if rt.db != nil {
		printRecentRuns(checkCtx, rt, p.Ticker)
	}
	return nil
}

func printRecentRuns(ctx context.Context, rt *runtime, ticker string) {
	PrintHeader("Recent Runs: " + ticker)

	if snap, err := quality.NewRepository(rt.db.Pool).GetLatest(ctx, ticker); err == nil && snap != nil {
		PrintKeyValue("Last quality", fmt.Sprintf("%.2f (passed=%v)", snap.QualityScore, snap.Passed), 14)
	}

	runs, err := forecast.NewRepository(rt.db.Pool).ListRuns(ctx, ticker, statusRuns)
	if err != nil {
		PrintError("list runs: " + err.Error())
		return
	}
	if len(runs) == 0 {
		PrintInfo("No runs recorded")
		return
	}

	widths := []int{34, 20, 8, 10, 10}
	PrintTableHeader([]string{"Run", "Started", "Status", "MAE", "MAPE%"}, widths)
	for _, r := range runs {
		mae, mape := "-", "-"
		if r.Metrics != nil {
			mae, mape = formatFloat(r.Metrics.MAE), formatFloat(r.Metrics.MAPE)
		}
		PrintTableRow([]string{r.RunID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, mae, mape}, widths)
	}
}

// redactURL hides the password of a connection URL
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
