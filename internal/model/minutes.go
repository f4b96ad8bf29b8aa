package model

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/ruleset"
)

// minTrainingRows is the smallest sample either model will fit on.
const minTrainingRows = 10

// MinutesModel estimates how much a player will play: a start classifier
// over all rows plus a minutes regressor over rows where the player started.
type MinutesModel struct {
	rules        ruleset.MinutesModel
	startMinutes int
	names        []string
	log          zerolog.Logger
}

// NewMinutesModel creates a trainer bound to a fixed feature column order.
func NewMinutesModel(rules ruleset.MinutesModel, features ruleset.Features, names []string, log zerolog.Logger) *MinutesModel {
	return &MinutesModel{
		rules:        rules,
		startMinutes: features.StartMinutes,
		names:        names,
		log:          log.With().Str("component", "model.minutes").Logger(),
	}
}

// Fit trains both estimators on the given rows. trainedThrough is the last
// round whose outcomes appear in the rows; the returned artifact records it
// so callers can verify the training boundary against their target round.
func (m *MinutesModel) Fit(rows []TrainingRow, trainedThrough int) (*MinutesArtifact, error) {
	if len(rows) < minTrainingRows {
		return nil, fmt.Errorf("%w: minutes model needs %d rows, got %d",
			contracts.ErrModelFit, minTrainingRows, len(rows))
	}

	x := make([][]float64, len(rows))
	started := make([]float64, len(rows))
	var startX [][]float64
	var startMinutes []float64

	for i, row := range rows {
		x[i] = vectorize(row.Features, m.names)
		if row.Minutes >= m.startMinutes {
			started[i] = 1
			startX = append(startX, x[i])
			startMinutes = append(startMinutes, float64(row.Minutes))
		}
	}

	if len(startX) == 0 {
		return nil, fmt.Errorf("%w: no starting appearances in %d rows", contracts.ErrModelFit, len(rows))
	}

	startScaler := fitScaler(x)
	startCoef := fitLogistic(startScaler.transformAll(x), started, m.rules.LearningRate, m.rules.Epochs, m.rules.L2)

	minutesScaler := fitScaler(startX)
	minutesCoef := fitLinear(minutesScaler.transformAll(startX), startMinutes, m.rules.LearningRate, m.rules.Epochs, m.rules.L2)

	m.log.Debug().
		Int("rows", len(rows)).
		Int("start_rows", len(startX)).
		Int("trained_through", trainedThrough).
		Msg("minutes model fitted")

	return &MinutesArtifact{
		TrainedThrough: trainedThrough,
		FeatureNames:   m.names,
		startScaler:    startScaler,
		startCoef:      startCoef,
		minutesScaler:  minutesScaler,
		minutesCoef:    minutesCoef,
		floorStartProb: m.rules.FloorStartProb,
	}, nil
}

// Predict returns the start probability in [0,1] and the expected minutes
// given a start in [0,90]. Players with no history fall back to the floor
// probability rather than whatever the extrapolated classifier says.
func (a *MinutesArtifact) Predict(fv *contracts.FeatureVector) (startProb, expectedMinutes float64) {
	row := vectorize(fv, a.FeatureNames)

	startProb = clamp(predictLogistic(a.startCoef, a.startScaler.transform(row)), 0, 1)
	if fv.Get("new_player") == 1 {
		startProb = a.floorStartProb
	}

	expectedMinutes = clamp(predictLinear(a.minutesCoef, a.minutesScaler.transform(row)), 0, 90)

	return startProb, expectedMinutes
}
