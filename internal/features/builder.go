package features

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/ruleset"
)

// Builder derives model-ready feature vectors from historical stat records.
// A vector for round R is a pure function of records with round < R; records
// at or after the target round are cut before any aggregate is computed.
type Builder struct {
	windows      []int
	startMinutes int
	log          zerolog.Logger
}

// NewBuilder creates a feature builder from the feature rules.
func NewBuilder(rules ruleset.Features, log zerolog.Logger) *Builder {
	return &Builder{
		windows:      rules.RollingWindows,
		startMinutes: rules.StartMinutes,
		log:          log.With().Str("component", "features.builder").Logger(),
	}
}

// MaxWindow returns the largest configured rolling window.
func (b *Builder) MaxWindow() int {
	return b.windows[len(b.windows)-1]
}

// Build computes the feature vector for one player and target round.
// history may contain records at or after targetRound; they are discarded.
// A player with zero history gets defined defaults plus a new-player flag,
// never an error.
func (b *Builder) Build(
	player *contracts.PlayerContext,
	targetRound int,
	history []contracts.StatRecord,
	fixture *contracts.FixtureContext,
	strengths map[int64]contracts.TeamStrength,
) *contracts.FeatureVector {
	fv := &contracts.FeatureVector{
		PlayerID: player.PlayerID,
		Round:    targetRound,
		Values:   make(map[string]float64),
	}

	// Causality cut: only rounds strictly before the target survive.
	past := make([]contracts.StatRecord, 0, len(history))
	for _, rec := range history {
		if rec.Round < targetRound {
			past = append(past, rec)
		}
	}

	b.addContextFeatures(fv, player)
	b.addFixtureFeatures(fv, player, fixture, strengths)

	for _, window := range b.windows {
		b.addRollingFeatures(fv, past, window)
	}

	fv.Set("games_played", float64(len(past)))
	completeness := float64(len(past)) / float64(b.MaxWindow())
	if completeness > 1 {
		completeness = 1
	}
	fv.Set("history_completeness", completeness)
	if len(past) == 0 {
		fv.Set("new_player", 1)
	} else {
		fv.Set("new_player", 0)
	}

	return fv
}

// addContextFeatures encodes the player's static attributes.
func (b *Builder) addContextFeatures(fv *contracts.FeatureVector, player *contracts.PlayerContext) {
	fv.Set("is_gkp", boolFeature(player.Position == contracts.PositionGKP))
	fv.Set("is_def", boolFeature(player.Position == contracts.PositionDEF))
	fv.Set("is_mid", boolFeature(player.Position == contracts.PositionMID))
	fv.Set("is_fwd", boolFeature(player.Position == contracts.PositionFWD))

	fv.Set("is_penalty_taker", boolFeature(player.PenaltyTaker))
	fv.Set("is_set_piece_taker", boolFeature(player.SetPieceTaker()))

	cost := player.NowCost
	if cost == 0 {
		cost = 50
	}
	fv.Set("now_cost", float64(cost))

	chance := player.ChanceOfPlaying
	if chance == 0 {
		chance = 100
	}
	fv.Set("chance_of_playing", float64(chance))
}

// addFixtureFeatures encodes home/away, difficulty and team strengths for
// the target round. Neutral defaults apply when the fixture is unknown.
func (b *Builder) addFixtureFeatures(
	fv *contracts.FeatureVector,
	player *contracts.PlayerContext,
	fixture *contracts.FixtureContext,
	strengths map[int64]contracts.TeamStrength,
) {
	const neutralStrength = 1000

	isHome := false
	difficulty := 3.0
	var opponentID int64

	if fixture != nil {
		if tf, ok := fixture.ForTeam(player.TeamID); ok {
			isHome = tf.IsHome
			difficulty = float64(tf.Difficulty)
			opponentID = tf.OpponentID
		}
	}

	fv.Set("is_home", boolFeature(isHome))
	fv.Set("fixture_difficulty", difficulty)

	// Opponent strength: the away ratings matter when we host, and vice versa.
	oppAttack, oppDefence := float64(neutralStrength), float64(neutralStrength)
	if opp, ok := strengths[opponentID]; ok {
		if isHome {
			oppAttack = nonZero(float64(opp.AttackStrengthAway), neutralStrength)
			oppDefence = nonZero(float64(opp.DefenceStrengthAway), neutralStrength)
		} else {
			oppAttack = nonZero(float64(opp.AttackStrengthHome), neutralStrength)
			oppDefence = nonZero(float64(opp.DefenceStrengthHome), neutralStrength)
		}
	}
	fv.Set("opponent_attack_strength", oppAttack)
	fv.Set("opponent_defence_strength", oppDefence)

	teamAttack, teamDefence := float64(neutralStrength), float64(neutralStrength)
	if team, ok := strengths[player.TeamID]; ok {
		if isHome {
			teamAttack = nonZero(float64(team.AttackStrengthHome), neutralStrength)
			teamDefence = nonZero(float64(team.DefenceStrengthHome), neutralStrength)
		} else {
			teamAttack = nonZero(float64(team.AttackStrengthAway), neutralStrength)
			teamDefence = nonZero(float64(team.DefenceStrengthAway), neutralStrength)
		}
	}
	fv.Set("team_attack_strength", teamAttack)
	fv.Set("team_defence_strength", teamDefence)
}

// addRollingFeatures aggregates the most recent `window` records. Fewer
// records than the window aggregates over what exists.
func (b *Builder) addRollingFeatures(fv *contracts.FeatureVector, past []contracts.StatRecord, window int) {
	recent := past
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	suffix := fmt.Sprintf("_%d", window)
	n := float64(len(recent))
	if n == 0 {
		for _, name := range rollingFeatureNames {
			fv.Set(name+suffix, 0)
		}
		return
	}

	var points, minutes, goals, assists, cleanSheets, bonus, bps float64
	var xg, xa, shots, keyPasses float64
	var starts float64
	for _, rec := range recent {
		points += float64(rec.TotalPoints)
		minutes += float64(rec.Minutes)
		goals += float64(rec.GoalsScored)
		assists += float64(rec.Assists)
		cleanSheets += float64(rec.CleanSheets)
		bonus += float64(rec.Bonus)
		bps += float64(rec.BPS)
		xg += rec.XG
		xa += rec.XA
		shots += float64(rec.Shots)
		keyPasses += float64(rec.KeyPasses)
		if rec.Minutes >= b.startMinutes {
			starts++
		}
	}

	fv.Set("points_mean"+suffix, points/n)
	fv.Set("points_sum"+suffix, points)
	fv.Set("points_std"+suffix, stddev(recent, points/n))
	fv.Set("minutes_mean"+suffix, minutes/n)
	fv.Set("starts"+suffix, starts)
	fv.Set("start_rate"+suffix, starts/n)
	fv.Set("goals_sum"+suffix, goals)
	fv.Set("assists_sum"+suffix, assists)
	fv.Set("ga_sum"+suffix, goals+assists)
	fv.Set("cs_sum"+suffix, cleanSheets)
	fv.Set("bonus_sum"+suffix, bonus)
	fv.Set("bps_mean"+suffix, bps/n)
	fv.Set("xg_sum"+suffix, xg)
	fv.Set("xa_sum"+suffix, xa)
	fv.Set("xga_sum"+suffix, xg+xa)
	if xg > 0 {
		fv.Set("goal_overperformance"+suffix, goals-xg)
	} else {
		fv.Set("goal_overperformance"+suffix, 0)
	}
	fv.Set("involvement"+suffix, shots+keyPasses)
}

// rollingFeatureNames lists every per-window feature, used to zero-fill
// vectors for players without history.
var rollingFeatureNames = []string{
	"points_mean", "points_sum", "points_std",
	"minutes_mean", "starts", "start_rate",
	"goals_sum", "assists_sum", "ga_sum",
	"cs_sum", "bonus_sum", "bps_mean",
	"xg_sum", "xa_sum", "xga_sum",
	"goal_overperformance", "involvement",
}

// FeatureNames returns the ordered model input columns for the configured
// windows. Order is fixed so fitted weight vectors stay aligned.
func (b *Builder) FeatureNames() []string {
	names := []string{
		"is_gkp", "is_def", "is_mid", "is_fwd",
		"is_penalty_taker", "is_set_piece_taker",
		"chance_of_playing",
	}
	for _, window := range b.windows {
		suffix := fmt.Sprintf("_%d", window)
		for _, name := range rollingFeatureNames {
			names = append(names, name+suffix)
		}
	}
	names = append(names,
		"is_home", "fixture_difficulty",
		"opponent_attack_strength", "opponent_defence_strength",
		"team_attack_strength", "team_defence_strength",
		"games_played",
	)
	return names
}

func stddev(recent []contracts.StatRecord, mean float64) float64 {
	if len(recent) < 2 {
		return 0
	}

	variance := 0.0
	for _, rec := range recent {
		diff := float64(rec.TotalPoints) - mean
		variance += diff * diff
	}
	variance /= float64(len(recent))

	return math.Sqrt(variance)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
