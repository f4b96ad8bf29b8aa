package contracts

import (
	"math"
	"time"
)

// DreamTeamEntry is one player of the ground-truth best XI for a round.
type DreamTeamEntry struct {
	PlayerID int64    `json:"player_id"`
	Position Position `json:"position"`
	Points   int      `json:"points"`
}

// DreamTeam is the observed best XI of a finished round.
type DreamTeam struct {
	Round   int              `json:"round"`
	Entries []DreamTeamEntry `json:"entries"`
}

// TotalPoints is the sum of actual points across the dream team.
func (dt *DreamTeam) TotalPoints() int {
	total := 0
	for _, e := range dt.Entries {
		total += e.Points
	}
	return total
}

// PlayerIDs returns the set of dream-team player IDs.
func (dt *DreamTeam) PlayerIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(dt.Entries))
	for _, e := range dt.Entries {
		ids[e.PlayerID] = struct{}{}
	}
	return ids
}

// BacktestRecord compares one round's prediction against its dream team.
type BacktestRecord struct {
	Round               int       `json:"round"`
	Evaluated           bool      `json:"evaluated"`
	SkipReason          string    `json:"skip_reason,omitempty"`
	PlayerOverlap       int       `json:"player_overlap"`
	PredictedTotal      float64   `json:"predicted_total"`
	ActualTotal         int       `json:"actual_total"`
	PredictedTeamActual int       `json:"predicted_team_actual"`
	PointsRatio         float64   `json:"points_ratio"`
	Formation           string    `json:"formation"`
	CreatedAt           time.Time `json:"created_at"`
}

// SummaryThresholds are the per-round targets a run is scored against:
// an overlap count and a points ratio a good round should reach.
type SummaryThresholds struct {
	Overlap int     `json:"overlap"`
	Ratio   float64 `json:"ratio"`
}

// BacktestSummary aggregates the evaluated rounds of a backtest run.
type BacktestSummary struct {
	StartRound        int               `json:"start_round"`
	EndRound          int               `json:"end_round"`
	Thresholds        SummaryThresholds `json:"thresholds"`
	EvaluatedRounds   int               `json:"evaluated_rounds"`
	SkippedRounds     int               `json:"skipped_rounds"`
	MeanOverlap       float64           `json:"mean_overlap"`
	StdOverlap        float64           `json:"std_overlap"`
	MinOverlap        int               `json:"min_overlap"`
	MaxOverlap        int               `json:"max_overlap"`
	MeanPointsRatio   float64           `json:"mean_points_ratio"`
	RoundsAtOverlap   int               `json:"rounds_at_overlap"`   // PlayerOverlap >= Thresholds.Overlap
	RoundsNearOverlap int               `json:"rounds_near_overlap"` // PlayerOverlap >= Thresholds.Overlap-1
	RoundsAtRatio     int               `json:"rounds_at_ratio"`     // PointsRatio >= Thresholds.Ratio
	Records           []BacktestRecord  `json:"records"`
}

// Summarize builds a summary from per-round records. Skipped rounds count
// toward SkippedRounds only; all ratio and overlap statistics use evaluated
// rounds as their denominator.
func Summarize(startRound, endRound int, thresholds SummaryThresholds, records []BacktestRecord) BacktestSummary {
	summary := BacktestSummary{
		StartRound: startRound,
		EndRound:   endRound,
		Thresholds: thresholds,
		Records:    records,
	}

	var overlaps []int
	var ratios []float64
	for _, rec := range records {
		if !rec.Evaluated {
			summary.SkippedRounds++
			continue
		}
		overlaps = append(overlaps, rec.PlayerOverlap)
		ratios = append(ratios, rec.PointsRatio)
		if rec.PlayerOverlap >= thresholds.Overlap {
			summary.RoundsAtOverlap++
		}
		if rec.PlayerOverlap >= thresholds.Overlap-1 {
			summary.RoundsNearOverlap++
		}
		if rec.PointsRatio >= thresholds.Ratio {
			summary.RoundsAtRatio++
		}
	}
	summary.EvaluatedRounds = len(overlaps)
	if len(overlaps) == 0 {
		return summary
	}

	summary.MinOverlap = overlaps[0]
	summary.MaxOverlap = overlaps[0]
	sum := 0.0
	for _, o := range overlaps {
		sum += float64(o)
		if o < summary.MinOverlap {
			summary.MinOverlap = o
		}
		if o > summary.MaxOverlap {
			summary.MaxOverlap = o
		}
	}
	summary.MeanOverlap = sum / float64(len(overlaps))

	variance := 0.0
	for _, o := range overlaps {
		diff := float64(o) - summary.MeanOverlap
		variance += diff * diff
	}
	summary.StdOverlap = math.Sqrt(variance / float64(len(overlaps)))

	ratioSum := 0.0
	for _, r := range ratios {
		ratioSum += r
	}
	summary.MeanPointsRatio = ratioSum / float64(len(ratios))

	return summary
}
