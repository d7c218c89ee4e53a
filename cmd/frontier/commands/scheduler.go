package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/frontier/internal/metrics"
	"github.com/wonny/frontier/internal/scheduler"
	"github.com/wonny/frontier/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 재최적화 스케줄러를 시작하거나 작업을 관리합니다.
DATABASE_URL이 필요합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/frontier scheduler start
  go run ./cmd/frontier scheduler list
  go run ./cmd/frontier scheduler run reoptimize`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- price_sync: 평일 18:00 (최근 종가 동기화)
- reoptimize: SCHEDULE_CRON (최대 Sharpe / 최소 분산 재계산 후 저장)

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
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(stdout, "=== Frontier Scheduler ===")

	rt, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rt.Close()

	sched.Start()

	fmt.Fprintln(stdout, "\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Fprintln(stdout, "\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Fprintln(stdout, "\nShutting down scheduler...")
	sched.Stop()
	fmt.Fprintln(stdout, "Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	rt, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rt.Close()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	rt, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer rt.Close()

	PrintInfo("Running job: " + jobName)
	result, err := sched.RunJobSync(cmd.Context(), jobName)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempt(s) in %v: %s", jobName, result.Attempts, result.Duration, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %v (attempts: %d)", jobName, result.Duration, result.Attempts))
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Fprintln(stdout, "\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		stat := stats[name]
		next := "-"
		if stat.NextRun != nil {
			next = stat.NextRun.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(stdout, "  - %-12s %-20s next: %s", name, stat.Schedule, next)
		if stat.ConsecutiveFailures > 0 {
			fmt.Fprintf(stdout, "  (failing x%d)", stat.ConsecutiveFailures)
		}
		fmt.Fprintln(stdout)
	}
}

// initScheduler wires the jobs onto a scheduler (DB 필수)
func initScheduler(cmd *cobra.Command) (*runtime, *scheduler.Scheduler, error) {
	rt, err := newRuntime(cmd.Context(), true)
	if err != nil {
		return nil, nil, err
	}
	if err := rt.db.EnsureSchema(cmd.Context()); err != nil {
		rt.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	reg := metrics.New()
	sched := scheduler.New(rt.log).WithObserver(reg)

	toAdd := []scheduler.Job{
		jobs.NewPriceSyncJob(rt.loader, rt.cfg, rt.log),
		jobs.NewReoptimizeJob(rt.loader, rt.runs, rt.cfg, rt.log).WithObserver(reg),
	}
	for _, job := range toAdd {
		if err := sched.AddJob(job); err != nil {
			rt.Close()
			return nil, nil, err
		}
	}

	return rt, sched, nil
}
