package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull player, fixture and scoring data from the FPL API",
	Long: `Syncs the bootstrap payload, every finished round and the upcoming
fixtures into the database, then enriches shot and key-pass counts from
Understat. Re-running is safe: all writes upsert.

Example:
  go run ./cmd/totw sync
  go run ./cmd/totw sync round 22
  go run ./cmd/totw sync --no-understat`,
	RunE: runSyncSeason,
}

var (
	syncRoundCmd = &cobra.Command{
		Use:   "round [round]",
		Short: "Sync a single finished round",
		Args:  cobra.ExactArgs(1),
		RunE:  runSyncRound,
	}

	syncNoUnderstat bool
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncRoundCmd)

	syncCmd.Flags().BoolVar(&syncNoUnderstat, "no-understat", false, "skip Understat enrichment")
}

func runSyncSeason(cmd *cobra.Command, args []string) error {
	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	next, err := app.ingest.SyncSeason(ctx)
	if err != nil {
		return fmt.Errorf("sync season: %w", err)
	}
	fmt.Printf("Season synced, next round is %d\n", next)

	if !syncNoUnderstat {
		if err := app.ingest.SyncUnderstat(ctx); err != nil {
			// Enrichment is best effort; the core sync already landed
			app.log.WithError(err).Warn("understat enrichment failed")
		} else {
			fmt.Println("Understat enrichment done")
		}
	}
	return nil
}

func runSyncRound(cmd *cobra.Command, args []string) error {
	round, err := strconv.Atoi(args[0])
	if err != nil || round < 1 {
		return fmt.Errorf("round must be a positive integer, got %q", args[0])
	}

	app, err := initApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	if err := app.ingest.SyncBootstrap(ctx); err != nil {
		return fmt.Errorf("sync bootstrap: %w", err)
	}
	if err := app.ingest.SyncRound(ctx, round); err != nil {
		return fmt.Errorf("sync round %d: %w", round, err)
	}

	fmt.Printf("Round %d synced\n", round)
	return nil
}
