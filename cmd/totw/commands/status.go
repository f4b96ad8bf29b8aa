package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show synced data and stored predictions",
	Long: `Prints the synced rounds, the stored eleven for the next round if
one exists, and the stored backtest range.

Example:
  go run ./cmd/totw status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	rounds, err := app.store.FinishedRounds(ctx)
	if err != nil {
		return fmt.Errorf("read finished rounds: %w", err)
	}
	if len(rounds) == 0 {
		fmt.Println("No rounds synced yet. Run: totw sync")
		return nil
	}

	last := rounds[len(rounds)-1]
	fmt.Printf("Synced rounds: %d (latest %d)\n", len(rounds), last)

	players, err := app.store.ListPlayerContexts(ctx)
	if err != nil {
		return fmt.Errorf("read players: %w", err)
	}
	fmt.Printf("Players: %d\n", len(players))

	next := last + 1
	xi, err := app.store.GetSelectedXI(ctx, next, app.predict.Version())
	if err != nil {
		fmt.Printf("No stored eleven for round %d (version %s)\n", next, app.predict.Version())
	} else {
		fmt.Printf("Round %d eleven: %s, predicted total %.2f\n",
			next, xi.Formation, xi.PredictedTotal)
	}

	records, err := app.store.GetBacktestRecords(ctx, 1, last)
	if err != nil {
		return fmt.Errorf("read backtest records: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No backtest records stored")
		return nil
	}

	evaluated := 0
	for _, r := range records {
		if r.Evaluated {
			evaluated++
		}
	}
	fmt.Printf("Backtest records: rounds %d..%d, %d evaluated\n",
		records[0].Round, records[len(records)-1].Round, evaluated)
	return nil
}
