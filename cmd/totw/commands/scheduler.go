package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/totw/internal/scheduler"
	"github.com/wonny/totw/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the daily sync and prediction jobs",
	Long: `Starts the scheduler daemon or manages its jobs.

Registered jobs:
  sync     - 06:00 daily, pulls finished rounds and Understat data
  predict  - 06:30 daily, generates the eleven for the next round

Example:
  go run ./cmd/totw scheduler start
  go run ./cmd/totw scheduler list
  go run ./cmd/totw scheduler run sync`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("Scheduler started")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	fmt.Println("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := initScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	name := args[0]
	fmt.Printf("Running job: %s\n", name)
	if err := sched.RunNow(name); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	results, err := sched.History(name, 1)
	if err == nil && len(results) == 1 {
		r := results[0]
		if r.Success {
			fmt.Printf("Job finished in %s\n", r.Duration)
		} else {
			return fmt.Errorf("job failed: %s", r.Error)
		}
	}
	return nil
}

func initScheduler(app *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(app.log)

	if err := sched.AddJob(jobs.NewSyncJob(app.ingest, app.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewPredictJob(app.predict, app.store, app.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func printJobs(sched *scheduler.Scheduler) {
	registered := sched.Jobs()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Registered jobs:")
	for _, name := range names {
		fmt.Printf("  %-10s %s\n", name, registered[name])
	}
}
