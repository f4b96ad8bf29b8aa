package model

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/ruleset"
)

// PointsModel estimates the points a player scores conditional on full
// participation. Rows where the player barely played carry no signal about
// a 90-minute outing, so training filters to rows at or above the
// minutes-full-fit threshold.
type PointsModel struct {
	rules ruleset.PointsModel
	names []string
	log   zerolog.Logger
}

// NewPointsModel creates a trainer bound to a fixed feature column order.
func NewPointsModel(rules ruleset.PointsModel, names []string, log zerolog.Logger) *PointsModel {
	return &PointsModel{
		rules: rules,
		names: names,
		log:   log.With().Str("component", "model.points").Logger(),
	}
}

// Fit trains the regressor on rows where the player played at least the
// full-fit minutes threshold.
func (m *PointsModel) Fit(rows []TrainingRow, trainedThrough int) (*PointsArtifact, error) {
	var x [][]float64
	var y []float64
	for _, row := range rows {
		if row.Minutes < m.rules.MinutesFullFit {
			continue
		}
		x = append(x, vectorize(row.Features, m.names))
		y = append(y, float64(row.TotalPoints))
	}

	if len(x) < minTrainingRows {
		return nil, fmt.Errorf("%w: points model needs %d full-participation rows, got %d",
			contracts.ErrModelFit, minTrainingRows, len(x))
	}

	sc := fitScaler(x)
	coef := fitLinear(sc.transformAll(x), y, m.rules.LearningRate, m.rules.Epochs, m.rules.L2)

	m.log.Debug().
		Int("rows", len(rows)).
		Int("fit_rows", len(x)).
		Int("trained_through", trainedThrough).
		Msg("points model fitted")

	return &PointsArtifact{
		TrainedThrough: trainedThrough,
		FeatureNames:   m.names,
		scaler:         sc,
		coef:           coef,
	}, nil
}

// Predict returns the expected points given 90 minutes played, never
// negative.
func (a *PointsArtifact) Predict(fv *contracts.FeatureVector) float64 {
	row := vectorize(fv, a.FeatureNames)
	pred := predictLinear(a.coef, a.scaler.transform(row))
	if pred < 0 {
		return 0
	}
	return pred
}
