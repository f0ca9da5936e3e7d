package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sentiforecast/internal/brain"
	"github.com/wonny/sentiforecast/internal/scheduler"
	"github.com/wonny/sentiforecast/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run forecast_pipeline`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- forecast_pipeline: PIPELINE_SCHEDULE (기본: 평일 18:30)
- output_cleanup: 매일 03:00 (오래된 실행 출력 삭제)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행 (완료까지 대기)",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	// Flags
	schedulerKeep   int
	schedulerMaxAge time.Duration
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().IntVar(&schedulerKeep, "keep", 30, "보존할 최근 실행 출력 수")
	schedulerCmd.PersistentFlags().DurationVar(&schedulerMaxAge, "max-age", 30*24*time.Hour, "실행 출력 보존 기간")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	PrintHeader("sentiforecast Scheduler")

	// Initialize dependencies
	sched, rt, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rt.Close()

	// Start scheduler
	sched.Start()

	PrintSuccess("Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal (root context)
	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, rt, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rt.Close()

	fmt.Println("Registered jobs:")
	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	widths := []int{20, 20}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, rt, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rt.Close()

	result, err := sched.RunJobSync(cmd.Context(), jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, result.Duration.Seconds()))
	return nil
}

func initScheduler(cmd *cobra.Command) (*scheduler.Scheduler, *runtime, error) {
	// 1. Config, logger, optional stores
	rt, err := initRuntime(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	// 2. Base run config (PIPELINE_* 환경변수)
	p := rt.cfg.Pipeline
	base := brain.RunConfig{
		Ticker:     p.Ticker,
		PricesPath: p.PricesPath,
		PostsPath:  p.PostsPath,
		OutputDir:  p.OutputDir,
		Model:      rt.model,
		TrainYears: p.TrainYears,
		TestYears:  p.TestYears,
	}

	// 3. Create scheduler
	sched := scheduler.New(rt.log)

	// 4. Register jobs
	for _, job := range []scheduler.Job{
		jobs.NewPipelineJob(rt.orchestrator(), base, p.Schedule, rt.log),
		jobs.NewOutputCleanupJob(p.OutputDir, schedulerKeep, schedulerMaxAge, rt.log),
	} {
		if err := sched.AddJob(job); err != nil {
			rt.Close()
			return nil, nil, err
		}
	}

	return sched, rt, nil
}
