package contracts

import (
	"fmt"
	"time"
)

// FeatureVector maps named features to numeric values for one (player, round)
// pair. Built exclusively from StatRecords with round < target round;
// ephemeral, never persisted.
type FeatureVector struct {
	PlayerID int64
	Round    int
	Values   map[string]float64
}

// Get returns a feature value, or 0 when the feature is absent.
func (fv *FeatureVector) Get(name string) float64 {
	return fv.Values[name]
}

// Set stores a feature value.
func (fv *FeatureVector) Set(name string, value float64) {
	if fv.Values == nil {
		fv.Values = make(map[string]float64)
	}
	fv.Values[name] = value
}

// HistoryCompleteness is the fraction of the largest rolling window covered
// by real history (0 for a new player, 1 with a full window).
func (fv *FeatureVector) HistoryCompleteness() float64 {
	return fv.Get("history_completeness")
}

// Prediction is the composed per-player estimate for a target round.
type Prediction struct {
	PlayerID         int64    `json:"player_id"`
	Round            int      `json:"round"`
	Position         Position `json:"position"`
	StartProbability float64  `json:"start_probability"` // [0,1]
	ExpectedMinutes  float64  `json:"expected_minutes"`  // [0,90], given start
	PointsGiven90    float64  `json:"points_given_90"`   // conditional on full participation
	ExpectedPoints   float64  `json:"expected_points"`
	Confidence       float64  `json:"confidence"` // [0,1]
	NowCost          int      `json:"now_cost"`
}

// XISlot is one filled slot in a selected team.
type XISlot struct {
	Slot       int        `json:"slot"` // 1~11, GK first, then DEF/MID/FWD
	PlayerID   int64      `json:"player_id"`
	Position   Position   `json:"position"`
	Prediction Prediction `json:"prediction"`
}

// SelectedXI is a legal starting eleven for one round. Immutable once built.
type SelectedXI struct {
	Round          int       `json:"round"`
	ModelVersion   string    `json:"model_version"`
	Formation      string    `json:"formation"` // e.g. "4-4-2" (DEF-MID-FWD)
	Slots          []XISlot  `json:"slots"`
	PredictedTotal float64   `json:"predicted_total"`
	CreatedAt      time.Time `json:"created_at"`
}

// PlayerIDs returns the set of selected player IDs.
func (xi *SelectedXI) PlayerIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(xi.Slots))
	for _, s := range xi.Slots {
		ids[s.PlayerID] = struct{}{}
	}
	return ids
}

// PositionCounts returns the number of selected players per position.
func (xi *SelectedXI) PositionCounts() map[Position]int {
	counts := make(map[Position]int, 4)
	for _, s := range xi.Slots {
		counts[s.Position]++
	}
	return counts
}

// FormationRules bounds the number of players per position. Supplied by
// configuration so competition rule changes do not require code changes.
type FormationRules struct {
	MinGoalkeepers int `yaml:"min_goalkeepers" json:"min_goalkeepers"`
	MaxGoalkeepers int `yaml:"max_goalkeepers" json:"max_goalkeepers"`
	MinDefenders   int `yaml:"min_defenders" json:"min_defenders"`
	MaxDefenders   int `yaml:"max_defenders" json:"max_defenders"`
	MinMidfielders int `yaml:"min_midfielders" json:"min_midfielders"`
	MaxMidfielders int `yaml:"max_midfielders" json:"max_midfielders"`
	MinForwards    int `yaml:"min_forwards" json:"min_forwards"`
	MaxForwards    int `yaml:"max_forwards" json:"max_forwards"`
	TotalPlayers   int `yaml:"total_players" json:"total_players"`
}

// DefaultFormationRules returns the standard Dream Team constraints.
func DefaultFormationRules() FormationRules {
	return FormationRules{
		MinGoalkeepers: 1,
		MaxGoalkeepers: 1,
		MinDefenders:   3,
		MaxDefenders:   5,
		MinMidfielders: 2,
		MaxMidfielders: 5,
		MinForwards:    1,
		MaxForwards:    3,
		TotalPlayers:   11,
	}
}

// Bounds returns the [min,max] slot range for a position.
func (r FormationRules) Bounds(p Position) (int, int) {
	switch p {
	case PositionGKP:
		return r.MinGoalkeepers, r.MaxGoalkeepers
	case PositionDEF:
		return r.MinDefenders, r.MaxDefenders
	case PositionMID:
		return r.MinMidfielders, r.MaxMidfielders
	case PositionFWD:
		return r.MinForwards, r.MaxForwards
	}
	return 0, 0
}

// Validate checks internal consistency of the rules.
func (r FormationRules) Validate() error {
	if r.TotalPlayers <= 0 {
		return fmt.Errorf("total_players must be positive, got %d", r.TotalPlayers)
	}
	for _, p := range []Position{PositionGKP, PositionDEF, PositionMID, PositionFWD} {
		lo, hi := r.Bounds(p)
		if lo < 0 || hi < lo {
			return fmt.Errorf("invalid bounds [%d,%d] for %s", lo, hi, p)
		}
	}
	minTotal := r.MinGoalkeepers + r.MinDefenders + r.MinMidfielders + r.MinForwards
	maxTotal := r.MaxGoalkeepers + r.MaxDefenders + r.MaxMidfielders + r.MaxForwards
	if minTotal > r.TotalPlayers || maxTotal < r.TotalPlayers {
		return fmt.Errorf("position bounds [%d,%d] cannot fill %d slots", minTotal, maxTotal, r.TotalPlayers)
	}
	return nil
}

// Satisfies reports whether a selected XI satisfies the rules.
func (r FormationRules) Satisfies(xi *SelectedXI) error {
	if len(xi.Slots) != r.TotalPlayers {
		return fmt.Errorf("%d players selected, want %d", len(xi.Slots), r.TotalPlayers)
	}
	counts := xi.PositionCounts()
	for _, p := range []Position{PositionGKP, PositionDEF, PositionMID, PositionFWD} {
		lo, hi := r.Bounds(p)
		if c := counts[p]; c < lo || c > hi {
			return fmt.Errorf("%d %s selected, want between %d and %d", c, p, lo, hi)
		}
	}
	seen := make(map[int64]struct{}, len(xi.Slots))
	for _, s := range xi.Slots {
		if _, dup := seen[s.PlayerID]; dup {
			return fmt.Errorf("player %d selected twice", s.PlayerID)
		}
		seen[s.PlayerID] = struct{}{}
	}
	return nil
}
