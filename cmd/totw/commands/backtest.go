package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/totw/internal/contracts"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay past rounds against the official Dream Team",
	Long: `Replays a round range: for each round, models are fitted only on
earlier rounds, an eleven is predicted and compared against the Dream Team
the FPL published for that round.

Example:
  go run ./cmd/totw backtest run --from 6 --to 30
  go run ./cmd/totw backtest run --from 6 --to 30 --workers 4`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over a round range",
		RunE:  runBacktest,
	}

	backtestFrom    int
	backtestTo      int
	backtestWorkers int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	backtestRunCmd.Flags().IntVar(&backtestFrom, "from", 0, "first round to evaluate (required)")
	backtestRunCmd.Flags().IntVar(&backtestTo, "to", 0, "last round to evaluate (required)")
	backtestRunCmd.Flags().IntVar(&backtestWorkers, "workers", 0, "parallel workers (default from config)")

	backtestRunCmd.MarkFlagRequired("from")
	backtestRunCmd.MarkFlagRequired("to")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if backtestFrom < 1 || backtestTo < backtestFrom {
		return fmt.Errorf("invalid round range [%d,%d]", backtestFrom, backtestTo)
	}

	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if backtestWorkers > 0 {
		app.cfg.Model.Workers = backtestWorkers
		app.harness = newHarnessWith(app)
	}

	fmt.Printf("Backtesting rounds %d..%d\n\n", backtestFrom, backtestTo)

	summary, err := app.harness.Run(context.Background(), backtestFrom, backtestTo)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(s *contracts.BacktestSummary) {
	fmt.Printf("Rounds evaluated: %d  (skipped %d)\n", s.EvaluatedRounds, s.SkippedRounds)
	if s.EvaluatedRounds == 0 {
		for _, r := range s.Records {
			fmt.Printf("  round %2d  skipped: %s\n", r.Round, r.SkipReason)
		}
		return
	}

	fmt.Printf("Overlap:  mean %.2f  std %.2f  min %d  max %d\n",
		s.MeanOverlap, s.StdOverlap, s.MinOverlap, s.MaxOverlap)
	fmt.Printf("Points ratio: mean %.3f\n", s.MeanPointsRatio)
	fmt.Printf("Rounds with overlap >= %d: %d\n", s.Thresholds.Overlap, s.RoundsAtOverlap)
	fmt.Printf("Rounds with overlap >= %d: %d\n", s.Thresholds.Overlap-1, s.RoundsNearOverlap)
	fmt.Printf("Rounds with ratio >= %.2f: %d\n\n", s.Thresholds.Ratio, s.RoundsAtRatio)

	for _, r := range s.Records {
		if !r.Evaluated {
			fmt.Printf("  round %2d  skipped: %s\n", r.Round, r.SkipReason)
			continue
		}
		fmt.Printf("  round %2d  %-6s  overlap %2d/11  predicted %6.1f  actual %3d  ratio %.3f\n",
			r.Round, r.Formation, r.PlayerOverlap, r.PredictedTotal, r.ActualTotal, r.PointsRatio)
	}
}
