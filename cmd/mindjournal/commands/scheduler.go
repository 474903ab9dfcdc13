package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mindjournal/internal/scheduler"
	"github.com/wonny/mindjournal/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Start the scheduler or manage its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job now and wait for it

Registered jobs:
  heatmap_warm  - daily at 00:10, rebuilds current-year heatmaps of active users
  streak_alert  - daily at 20:00, warns users whose streak ends tonight

Schedules are evaluated in HEATMAP_TIMEZONE.

Example:
  go run ./cmd/mindjournal scheduler start
  go run ./cmd/mindjournal scheduler list
  go run ./cmd/mindjournal scheduler run heatmap_warm`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Start the scheduler and schedule all registered jobs.

Streak alerts are published to the hub of this process only. Run the jobs
inside the API server (api --scheduler) for alerts to reach websocket clients.

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var runTimeout time.Duration

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerRunCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "abort the job after this long")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Mind Journal Scheduler ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %-14s next run %s\n", jobName, next.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	printJobStats(newReport(cmd.OutOrStdout(), 12), sched.GetJobStats())
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()
	var rows [][]string
	for _, jobName := range sched.GetAllJobs() {
		rows = append(rows, []string{jobName, stats[jobName].Schedule})
	}
	newReport(cmd.OutOrStdout(), 0).table([]string{"JOB", "SCHEDULE"}, rows)

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	out := newReport(cmd.OutOrStdout(), 0)
	out.line("Running job: %s", jobName)

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.scheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		out.fail("%v", err)
		return fmt.Errorf("run job: %w", err)
	}

	out.ok("Job %s completed in %s (%d attempt(s))", jobName, result.Duration.Round(time.Millisecond), result.Attempts)
	return nil
}

func printJobStats(out *report, stats map[string]scheduler.JobStats) {
	out.line("Job Statistics:\n")

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stat := stats[name]
		out.line("📊 %s", name)
		out.kv("Schedule", "%s", stat.Schedule)
		out.kv("Total Runs", "%d", stat.TotalRuns)
		out.kv("Success", "%d (%.1f%%)", stat.SuccessCount, stat.SuccessRate*100)
		out.kv("Failures", "%d", stat.FailureCount)
		if stat.LastRun != nil {
			out.kv("Last Run", "%s", stat.LastRun.Format(time.DateTime))
		}
		if stat.LastFailure != nil {
			out.kv("Last Failure", "%s", stat.LastFailure.Format(time.DateTime))
		}
		out.line("")
	}
}

// initApp loads config and logger and wires the dashboard service
func initApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logger.New(cfg))
}
