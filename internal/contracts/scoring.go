package contracts

// FPL scoring values. The ingestion layer rescores synced records against
// these to flag payloads that disagree with the official totals.

const (
	PointsMinutes1To59 = 1
	PointsMinutes60    = 2
	PointsAssist       = 3
	PointsPenaltySaved = 5
	PointsPenaltyMiss  = -2
	PointsYellowCard   = -1
	PointsRedCard      = -3
	PointsOwnGoal      = -2
	PointsPerSaves     = 1 // per 3 saves, GK only
)

// GoalPoints returns the points awarded for a goal by position.
func GoalPoints(p Position) int {
	switch p {
	case PositionGKP, PositionDEF:
		return 6
	case PositionMID:
		return 5
	default:
		return 4
	}
}

// CleanSheetPoints returns the points for a clean sheet by position.
func CleanSheetPoints(p Position) int {
	switch p {
	case PositionGKP, PositionDEF:
		return 4
	case PositionMID:
		return 1
	default:
		return 0
	}
}

// ScoreRecord recomputes a stat record's total points under FPL rules.
func ScoreRecord(rec *StatRecord, pos Position) int {
	points := 0
	switch {
	case rec.Minutes >= 60:
		points += PointsMinutes60
	case rec.Minutes > 0:
		points += PointsMinutes1To59
	}
	points += rec.GoalsScored * GoalPoints(pos)
	points += rec.Assists * PointsAssist
	if rec.Minutes >= 60 {
		points += rec.CleanSheets * CleanSheetPoints(pos)
	}
	if pos == PositionGKP || pos == PositionDEF {
		points -= rec.GoalsConceded / 2
	}
	if pos == PositionGKP {
		points += rec.Saves / 3 * PointsPerSaves
	}
	points += rec.PenaltiesSaved * PointsPenaltySaved
	points += rec.PenaltiesMissed * PointsPenaltyMiss
	points += rec.YellowCards * PointsYellowCard
	points += rec.RedCards * PointsRedCard
	points += rec.OwnGoals * PointsOwnGoal
	points += rec.Bonus
	return points
}
