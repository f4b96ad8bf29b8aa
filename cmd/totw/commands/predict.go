package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/totw/internal/contracts"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict [round]",
	Short: "Generate the predicted eleven for a round",
	Long: `Fits the minutes and points models on all rounds before the target,
composes expected points per player and solves the optimal legal eleven.

Example:
  go run ./cmd/totw predict 22
  go run ./cmd/totw predict 22 --baseline`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

var predictBaseline bool

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().BoolVar(&predictBaseline, "baseline", false, "use the form-average baseline instead of the fitted models")
}

func runPredict(cmd *cobra.Command, args []string) error {
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

	var xi *contracts.SelectedXI
	if predictBaseline {
		xi, err = app.predict.GenerateBaselineXI(ctx, round)
	} else {
		xi, err = app.predict.GenerateXI(ctx, round)
	}
	if err != nil {
		return fmt.Errorf("generate eleven for round %d: %w", round, err)
	}

	printXI(xi)
	return nil
}

func printXI(xi *contracts.SelectedXI) {
	fmt.Printf("Round %d  %s  (%s)\n", xi.Round, xi.Formation, xi.ModelVersion)
	fmt.Printf("Predicted total: %.2f\n\n", xi.PredictedTotal)

	for _, slot := range xi.Slots {
		fmt.Printf("%2d  %-3s  player %-6d  %.2f pts  (start %.0f%%, %.0f min, conf %.2f)\n",
			slot.Slot,
			slot.Position,
			slot.PlayerID,
			slot.Prediction.ExpectedPoints,
			slot.Prediction.StartProbability*100,
			slot.Prediction.ExpectedMinutes,
			slot.Prediction.Confidence,
		)
	}
}
