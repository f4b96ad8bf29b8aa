package fpl

// Wire types for the Fantasy Premier League API. Field names mirror the API
// payloads; only the fields the ingest pipeline reads are declared.

// Bootstrap is the /bootstrap-static/ payload.
type Bootstrap struct {
	Events   []Event   `json:"events"`
	Teams    []Team    `json:"teams"`
	Elements []Element `json:"elements"`
}

// Event is one gameweek.
type Event struct {
	ID          int  `json:"id"`
	Finished    bool `json:"finished"`
	DataChecked bool `json:"data_checked"`
	IsCurrent   bool `json:"is_current"`
	IsNext      bool `json:"is_next"`
}

// Team carries the strength ratings used as features.
type Team struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ShortName           string `json:"short_name"`
	StrengthAttackHome  int    `json:"strength_attack_home"`
	StrengthAttackAway  int    `json:"strength_attack_away"`
	StrengthDefenceHome int    `json:"strength_defence_home"`
	StrengthDefenceAway int    `json:"strength_defence_away"`
}

// Element is one player. Nullable ordering fields use pointers; a nil
// penalties_order means the player takes no penalties.
type Element struct {
	ID                        int    `json:"id"`
	WebName                   string `json:"web_name"`
	ElementType               int    `json:"element_type"`
	Team                      int    `json:"team"`
	NowCost                   int    `json:"now_cost"`
	Status                    string `json:"status"`
	ChanceOfPlayingNextRound  *int   `json:"chance_of_playing_next_round"`
	PenaltiesOrder            *int   `json:"penalties_order"`
	CornersAndFreekicksOrder  *int   `json:"corners_and_indirect_freekicks_order"`
	DirectFreekicksOrder      *int   `json:"direct_freekicks_order"`
}

// Fixture is one match of a gameweek. Event is nil for unscheduled games.
type Fixture struct {
	Event           *int `json:"event"`
	TeamH           int  `json:"team_h"`
	TeamA           int  `json:"team_a"`
	TeamHDifficulty int  `json:"team_h_difficulty"`
	TeamADifficulty int  `json:"team_a_difficulty"`
	Finished        bool `json:"finished"`
}

// Live is the /event/{id}/live/ payload.
type Live struct {
	Elements []LiveElement `json:"elements"`
}

// LiveElement is one player's stats for a gameweek.
type LiveElement struct {
	ID    int       `json:"id"`
	Stats LiveStats `json:"stats"`
}

// LiveStats mirrors the FPL stat block. Expected-goal figures arrive as
// decimal strings.
type LiveStats struct {
	Minutes         int    `json:"minutes"`
	GoalsScored     int    `json:"goals_scored"`
	Assists         int    `json:"assists"`
	CleanSheets     int    `json:"clean_sheets"`
	GoalsConceded   int    `json:"goals_conceded"`
	Saves           int    `json:"saves"`
	PenaltiesSaved  int    `json:"penalties_saved"`
	PenaltiesMissed int    `json:"penalties_missed"`
	YellowCards     int    `json:"yellow_cards"`
	RedCards        int    `json:"red_cards"`
	OwnGoals        int    `json:"own_goals"`
	Bonus           int    `json:"bonus"`
	Bps             int    `json:"bps"`
	TotalPoints     int    `json:"total_points"`
	ExpectedGoals   string `json:"expected_goals"`
	ExpectedAssists string `json:"expected_assists"`
}

// DreamTeamResponse is the /dream-team/{id}/ payload.
type DreamTeamResponse struct {
	Team []DreamTeamPick `json:"team"`
}

// DreamTeamPick is one player of the official dream team.
type DreamTeamPick struct {
	Element int `json:"element"`
	Points  int `json:"points"`
}
