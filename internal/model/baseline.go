package model

import (
	"fmt"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/ruleset"
)

// Baseline is the weighted-form comparator: a blend of recent per-game
// scoring adjusted for venue and fixture difficulty. It needs no fitting,
// so backtests can always fall back to it when a learned model cannot fit.
type Baseline struct {
	rules ruleset.Baseline
	keys  []string // points_mean_<w> for each configured rolling window
}

// NewBaseline creates the comparator. The baseline weights pair positionally
// with the configured rolling windows.
func NewBaseline(rules ruleset.Baseline, features ruleset.Features) *Baseline {
	keys := make([]string, len(features.RollingWindows))
	for i, w := range features.RollingWindows {
		keys[i] = fmt.Sprintf("points_mean_%d", w)
	}
	return &Baseline{rules: rules, keys: keys}
}

// Predict blends the rolling points means and applies fixture modifiers.
// Difficulty 2 or easier earns the easy-fixture bonus, 4 or harder the
// hard-fixture penalty. Output is never negative.
func (b *Baseline) Predict(fv *contracts.FeatureVector) float64 {
	form := 0.0
	for i, key := range b.keys {
		form += b.rules.Weights[i] * fv.Get(key)
	}

	if fv.Get("is_home") == 1 {
		form *= 1 + b.rules.HomeBonus
	}

	switch difficulty := fv.Get("fixture_difficulty"); {
	case difficulty > 0 && difficulty <= 2:
		form *= 1 + b.rules.EasyFixtureBonus
	case difficulty >= 4:
		form *= 1 - b.rules.HardFixturePenalty
	}

	if form < 0 {
		return 0
	}
	return form
}
