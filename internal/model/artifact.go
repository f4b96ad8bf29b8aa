package model

import (
	"github.com/wonny/totw/internal/contracts"
)

// TrainingRow pairs a feature vector with the realized outcome of the round
// the vector was built for. The vector itself only sees earlier rounds.
type TrainingRow struct {
	Features    *contracts.FeatureVector
	Minutes     int
	TotalPoints int
}

// MinutesArtifact is a fitted minutes model. It is immutable after Fit:
// concurrent Predict calls share it safely, and TrainedThrough records the
// last round whose outcomes the parameters have seen.
type MinutesArtifact struct {
	TrainedThrough int
	FeatureNames   []string

	startScaler   *scaler
	startCoef     linearCoef
	minutesScaler *scaler
	minutesCoef   linearCoef

	floorStartProb float64
}

// PointsArtifact is a fitted conditional points model, immutable after Fit.
type PointsArtifact struct {
	TrainedThrough int
	FeatureNames   []string

	scaler *scaler
	coef   linearCoef
}

// vectorize extracts the named features from a vector in fixed column order.
func vectorize(fv *contracts.FeatureVector, names []string) []float64 {
	row := make([]float64, len(names))
	for j, name := range names {
		row[j] = fv.Get(name)
	}
	return row
}
