package compose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/totw/internal/contracts"
)

func testPlayer() *contracts.PlayerContext {
	return &contracts.PlayerContext{
		PlayerID: 7,
		Position: contracts.PositionFWD,
		NowCost:  112,
	}
}

func testVector(completeness float64) *contracts.FeatureVector {
	fv := &contracts.FeatureVector{PlayerID: 7, Round: 12, Values: make(map[string]float64)}
	fv.Set("history_completeness", completeness)
	return fv
}

func TestCompose_ExactFormula(t *testing.T) {
	pred := Compose(testPlayer(), testVector(1.0), 0.9, 85, 6.0)

	want := 0.9 * (85.0 / 90.0) * 6.0
	assert.InDelta(t, want, pred.ExpectedPoints, 1e-9)
	assert.Equal(t, 7, int(pred.PlayerID))
	assert.Equal(t, 12, pred.Round)
	assert.Equal(t, contracts.PositionFWD, pred.Position)
	assert.Equal(t, 112, pred.NowCost)

	// The stored factors reproduce the composed value
	recomposed := pred.StartProbability * (pred.ExpectedMinutes / 90) * pred.PointsGiven90
	assert.InDelta(t, pred.ExpectedPoints, recomposed, 1e-9)
}

func TestCompose_ZeroFactorsZeroExpectation(t *testing.T) {
	assert.Equal(t, 0.0, Compose(testPlayer(), testVector(1), 0, 90, 8).ExpectedPoints)
	assert.Equal(t, 0.0, Compose(testPlayer(), testVector(1), 1, 0, 8).ExpectedPoints)
	assert.Equal(t, 0.0, Compose(testPlayer(), testVector(1), 1, 90, 0).ExpectedPoints)
}

// Each factor is monotone: raising any one of them never lowers the
// expectation.
func TestCompose_Monotone(t *testing.T) {
	base := Compose(testPlayer(), testVector(1), 0.5, 60, 4)

	assert.Greater(t, Compose(testPlayer(), testVector(1), 0.8, 60, 4).ExpectedPoints, base.ExpectedPoints)
	assert.Greater(t, Compose(testPlayer(), testVector(1), 0.5, 80, 4).ExpectedPoints, base.ExpectedPoints)
	assert.Greater(t, Compose(testPlayer(), testVector(1), 0.5, 60, 6).ExpectedPoints, base.ExpectedPoints)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0, 1))
	assert.Equal(t, 0.0, Confidence(1, 0))
	assert.Equal(t, 1.0, Confidence(1, 1))
	assert.InDelta(t, math.Sqrt(0.5*0.8), Confidence(0.5, 0.8), 1e-9)

	full := Compose(testPlayer(), testVector(1.0), 0.9, 85, 6.0)
	thin := Compose(testPlayer(), testVector(0.25), 0.9, 85, 6.0)
	assert.Greater(t, full.Confidence, thin.Confidence)
}
