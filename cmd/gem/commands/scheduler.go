package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/gem/backend/internal/scheduler"
	"github.com/wonny/gem/backend/internal/scheduler/jobs"
	"github.com/wonny/gem/backend/pkg/database"
	"github.com/wonny/gem/backend/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `실행 기록 보존 작업을 스케줄하거나 즉시 실행합니다.
DATABASE_URL 이 필요합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/gem scheduler start
  go run ./cmd/gem scheduler list
  go run ./cmd/gem scheduler run audit_retention`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- audit_retention: 매일 03:00 (AUDIT_RETENTION_DAYS 이전 실행 기록 삭제)

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
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GEM Scheduler ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, db, err := initScheduler(ctx)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer db.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	fmt.Println("\nRun summary:")
	printJobs(sched)

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, db, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer db.Close()

	fmt.Println("Registered jobs:")
	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, db, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer db.Close()

	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return err
	}
	printJobs(sched)
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	for _, jobName := range sched.GetAllJobs() {
		fmt.Println(formatJobLine(jobName, stats[jobName], sched))
	}
}

// formatJobLine renders one job with its next run and recorded run stats
func formatJobLine(jobName string, stat scheduler.JobStats, sched *scheduler.Scheduler) string {
	line := fmt.Sprintf("  - %s [%s]", jobName, stat.Schedule)
	if next, err := sched.NextRun(jobName); err == nil && !next.IsZero() {
		line += fmt.Sprintf(" next: %s", next.Format(time.RFC3339))
	}
	if stat.TotalRuns == 0 {
		return line + " runs: 0"
	}

	line += fmt.Sprintf(" runs: %d ok: %.0f%% mean: %s p95: %s",
		stat.TotalRuns, stat.SuccessRate*100, stat.MeanDuration, stat.P95Duration)
	if stat.LastError != "" {
		line += fmt.Sprintf(" last error: %s", stat.LastError)
	}
	return line
}

// initScheduler connects to the audit database and registers every job
func initScheduler(ctx context.Context) (*scheduler.Scheduler, *database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for the scheduler")
	}

	log := logger.New(cfg)

	db, repo, err := openAudit(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(log, scheduler.WithRetries(3, time.Minute))
	if err := sched.AddJob(jobs.NewRetentionJob(repo, cfg.Audit.RetentionDays, log)); err != nil {
		db.Close()
		return nil, nil, err
	}

	return sched, db, nil
}
