package contracts

import "time"

// Position is a player's role on the pitch.
type Position string

const (
	PositionGKP Position = "GKP"
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionFWD Position = "FWD"
)

// PositionFromElementType converts the FPL element_type (1-4) to a Position.
func PositionFromElementType(elementType int) Position {
	switch elementType {
	case 1:
		return PositionGKP
	case 2:
		return PositionDEF
	case 3:
		return PositionMID
	case 4:
		return PositionFWD
	default:
		return PositionMID
	}
}

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionGKP, PositionDEF, PositionMID, PositionFWD:
		return true
	}
	return false
}

// PlayerContext holds the static and slow-changing attributes of a player.
// Owned by the ingestion layer; the engine reads it, never writes it.
type PlayerContext struct {
	PlayerID        int64     `json:"player_id"`
	FplID           int       `json:"fpl_id"`
	WebName         string    `json:"web_name"`
	Position        Position  `json:"position"`
	TeamID          int64     `json:"team_id"`
	NowCost         int       `json:"now_cost"`          // price in tenths of a million
	ChanceOfPlaying int       `json:"chance_of_playing"` // 0~100
	PenaltyTaker    bool      `json:"penalty_taker"`
	CornerTaker     bool      `json:"corner_taker"`
	FreekickTaker   bool      `json:"freekick_taker"`
	Status          string    `json:"status"` // a/d/i/n/s/u
	UpdatedAt       time.Time `json:"updated_at"`
}

// SetPieceTaker reports whether the player takes corners or free kicks.
func (pc *PlayerContext) SetPieceTaker() bool {
	return pc.CornerTaker || pc.FreekickTaker
}

// StatRecord is one player's observed performance in one completed round.
// Immutable once the round is finished.
type StatRecord struct {
	PlayerID        int64   `json:"player_id"`
	Round           int     `json:"round"`
	Minutes         int     `json:"minutes"`
	GoalsScored     int     `json:"goals_scored"`
	Assists         int     `json:"assists"`
	CleanSheets     int     `json:"clean_sheets"`
	GoalsConceded   int     `json:"goals_conceded"`
	Saves           int     `json:"saves"`
	PenaltiesSaved  int     `json:"penalties_saved"`
	PenaltiesMissed int     `json:"penalties_missed"`
	YellowCards     int     `json:"yellow_cards"`
	RedCards        int     `json:"red_cards"`
	OwnGoals        int     `json:"own_goals"`
	Bonus           int     `json:"bonus"`
	BPS             int     `json:"bps"`
	TotalPoints     int     `json:"total_points"`
	Shots           int     `json:"shots"`
	KeyPasses       int     `json:"key_passes"`
	XG              float64 `json:"xg"`
	XA              float64 `json:"xa"`
	WasHome         bool    `json:"was_home"`
	Difficulty      int     `json:"difficulty"` // fixture difficulty 1~5
}

// Started reports whether the record counts as a start (60+ minutes).
func (s *StatRecord) Started() bool {
	return s.Minutes >= 60
}

// TeamFixture is one team's fixture context for a round.
type TeamFixture struct {
	TeamID     int64 `json:"team_id"`
	OpponentID int64 `json:"opponent_id"`
	IsHome     bool  `json:"is_home"`
	Difficulty int   `json:"difficulty"` // 1 (easiest) ~ 5
}

// FixtureContext maps team ID to that team's fixture for a single round.
type FixtureContext struct {
	Round    int                   `json:"round"`
	Fixtures map[int64]TeamFixture `json:"fixtures"`
}

// ForTeam returns the fixture for a team, if it plays this round.
func (fc *FixtureContext) ForTeam(teamID int64) (TeamFixture, bool) {
	f, ok := fc.Fixtures[teamID]
	return f, ok
}

// TeamStrength holds FPL strength ratings for a team.
type TeamStrength struct {
	TeamID              int64  `json:"team_id"`
	Name                string `json:"name"`
	AttackStrengthHome  int    `json:"attack_strength_home"`
	AttackStrengthAway  int    `json:"attack_strength_away"`
	DefenceStrengthHome int    `json:"defence_strength_home"`
	DefenceStrengthAway int    `json:"defence_strength_away"`
}
