package compose

import (
	"math"

	"github.com/wonny/totw/internal/contracts"
)

// Compose folds the participation estimates and the conditional points
// estimate into a single expectation:
//
//	expectedPoints = startProbability * (expectedMinutes / 90) * pointsGiven90
//
// The three factors are kept on the prediction so any expectation can be
// decomposed back into its parts.
func Compose(
	player *contracts.PlayerContext,
	fv *contracts.FeatureVector,
	startProbability, expectedMinutes, pointsGiven90 float64,
) contracts.Prediction {
	return contracts.Prediction{
		PlayerID:         player.PlayerID,
		Round:            fv.Round,
		Position:         player.Position,
		StartProbability: startProbability,
		ExpectedMinutes:  expectedMinutes,
		PointsGiven90:    pointsGiven90,
		ExpectedPoints:   startProbability * (expectedMinutes / 90) * pointsGiven90,
		Confidence:       Confidence(startProbability, fv.HistoryCompleteness()),
		NowCost:          player.NowCost,
	}
}

// Confidence scores how much to trust a prediction: the geometric mean of
// the start probability and the history completeness behind the features.
func Confidence(startProbability, historyCompleteness float64) float64 {
	return math.Sqrt(startProbability * historyCompleteness)
}
