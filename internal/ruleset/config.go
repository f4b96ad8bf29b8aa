package ruleset

import (
	"fmt"

	"github.com/wonny/totw/internal/contracts"
)

// Rules is the full prediction strategy configuration loaded from YAML.
type Rules struct {
	Meta      Meta                     `yaml:"meta" json:"meta"`
	Formation contracts.FormationRules `yaml:"formation" json:"formation"`
	Features  Features                 `yaml:"features" json:"features"`
	Minutes   MinutesModel             `yaml:"minutes_model" json:"minutes_model"`
	Points    PointsModel              `yaml:"points_model" json:"points_model"`
	Baseline  Baseline                 `yaml:"baseline" json:"baseline"`
	Backtest  Backtest                 `yaml:"backtest" json:"backtest"`
}

// Meta identifies the strategy revision.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Features controls feature derivation.
type Features struct {
	RollingWindows []int `yaml:"rolling_windows" json:"rolling_windows"` // e.g. [3, 5, 8]
	StartMinutes   int   `yaml:"start_minutes" json:"start_minutes"`     // minutes counted as a start
}

// MinutesModel controls the start classifier and minutes regressor.
type MinutesModel struct {
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate"`
	Epochs         int     `yaml:"epochs" json:"epochs"`
	L2             float64 `yaml:"l2" json:"l2"`
	FloorStartProb float64 `yaml:"floor_start_prob" json:"floor_start_prob"` // for players with no history
}

// PointsModel controls the conditional points regressor.
type PointsModel struct {
	LearningRate   float64 `yaml:"learning_rate" json:"learning_rate"`
	Epochs         int     `yaml:"epochs" json:"epochs"`
	L2             float64 `yaml:"l2" json:"l2"`
	MinutesFullFit int     `yaml:"minutes_full_fit" json:"minutes_full_fit"` // training row threshold
}

// Baseline controls the weighted-form comparator model. Weights pair
// positionally with features.rolling_windows.
type Baseline struct {
	Weights            []float64 `yaml:"weights" json:"weights"`
	HomeBonus          float64   `yaml:"home_bonus" json:"home_bonus"`
	EasyFixtureBonus   float64   `yaml:"easy_fixture_bonus" json:"easy_fixture_bonus"`
	HardFixturePenalty float64   `yaml:"hard_fixture_penalty" json:"hard_fixture_penalty"`
}

// Backtest controls harness behavior.
type Backtest struct {
	MinRounds        int     `yaml:"min_rounds" json:"min_rounds"`
	OverlapThreshold int     `yaml:"overlap_threshold" json:"overlap_threshold"`
	RatioThreshold   float64 `yaml:"ratio_threshold" json:"ratio_threshold"`
}

// Default returns the built-in strategy used when no YAML file is supplied.
func Default() *Rules {
	return &Rules{
		Meta: Meta{
			StrategyID: "totw-form",
			Version:    "v1",
		},
		Formation: contracts.DefaultFormationRules(),
		Features: Features{
			RollingWindows: []int{3, 5, 8},
			StartMinutes:   60,
		},
		Minutes: MinutesModel{
			LearningRate:   0.05,
			Epochs:         300,
			L2:             0.001,
			FloorStartProb: 0.05,
		},
		Points: PointsModel{
			LearningRate:   0.01,
			Epochs:         400,
			L2:             0.001,
			MinutesFullFit: 60,
		},
		Baseline: Baseline{
			Weights:            []float64{0.40, 0.35, 0.25},
			HomeBonus:          0.10,
			EasyFixtureBonus:   0.10,
			HardFixturePenalty: 0.10,
		},
		Backtest: Backtest{
			MinRounds:        3,
			OverlapThreshold: 9,
			RatioThreshold:   0.85,
		},
	}
}

// Validate checks rule consistency.
func Validate(r *Rules) error {
	if err := r.Formation.Validate(); err != nil {
		return fmt.Errorf("formation: %w", err)
	}

	if len(r.Features.RollingWindows) == 0 {
		return fmt.Errorf("features: at least one rolling window required")
	}
	prev := 0
	for _, w := range r.Features.RollingWindows {
		if w <= prev {
			return fmt.Errorf("features: rolling windows must be positive and ascending, got %v", r.Features.RollingWindows)
		}
		prev = w
	}

	if r.Features.StartMinutes <= 0 || r.Features.StartMinutes > 90 {
		return fmt.Errorf("features: start_minutes must be in (0,90], got %d", r.Features.StartMinutes)
	}

	if len(r.Baseline.Weights) != len(r.Features.RollingWindows) {
		return fmt.Errorf("baseline: need one weight per rolling window, got %d weights for %d windows",
			len(r.Baseline.Weights), len(r.Features.RollingWindows))
	}
	sum := 0.0
	for _, w := range r.Baseline.Weights {
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("baseline: window weights must sum to 1.0, got %.3f", sum)
	}

	if r.Backtest.MinRounds < 1 {
		return fmt.Errorf("backtest: min_rounds must be at least 1")
	}

	if r.Points.MinutesFullFit <= 0 {
		return fmt.Errorf("points_model: minutes_full_fit must be positive")
	}

	return nil
}
