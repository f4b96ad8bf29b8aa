package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "totw",
	Short: "Dream Team prediction engine for Fantasy Premier League",
	Long: `totw predicts the official FPL Dream Team of an upcoming round and
evaluates its own predictions against the published one.

Pipeline: sync round data -> build features -> fit minutes/points models ->
compose expected points -> solve the optimal eleven.

Usage:
  go run ./cmd/totw [command]

Examples:
  go run ./cmd/totw sync
  go run ./cmd/totw predict 22
  go run ./cmd/totw backtest run --from 6 --to 30
  go run ./cmd/totw api
  go run ./cmd/totw scheduler start`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
