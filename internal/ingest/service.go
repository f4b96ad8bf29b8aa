package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/ingest/fpl"
	"github.com/wonny/totw/internal/ingest/understat"
	"github.com/wonny/totw/pkg/logger"
)

// Store is what ingestion needs from the persistence layer.
type Store interface {
	contracts.StatWriter
	contracts.StatReader
	contracts.ContextReader
}

// Service pulls data from the FPL API and Understat into the store. Each
// sync is idempotent: records upsert on their natural keys.
type Service struct {
	fpl       *fpl.Client
	understat *understat.Client
	store     Store
	logger    *logger.Logger
}

// NewService creates the ingestion service. understatClient may be nil to
// run without xG enrichment.
func NewService(fplClient *fpl.Client, understatClient *understat.Client, store Store, log *logger.Logger) *Service {
	return &Service{
		fpl:       fplClient,
		understat: understatClient,
		store:     store,
		logger:    log.WithField("component", "ingest"),
	}
}

// SyncBootstrap refreshes player contexts and team strengths.
func (s *Service) SyncBootstrap(ctx context.Context) error {
	bootstrap, err := s.fpl.Bootstrap(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	players := make([]contracts.PlayerContext, 0, len(bootstrap.Elements))
	for _, e := range bootstrap.Elements {
		chance := 100
		if e.ChanceOfPlayingNextRound != nil {
			chance = *e.ChanceOfPlayingNextRound
		}
		players = append(players, contracts.PlayerContext{
			PlayerID:        int64(e.ID),
			FplID:           e.ID,
			WebName:         e.WebName,
			Position:        contracts.PositionFromElementType(e.ElementType),
			TeamID:          int64(e.Team),
			NowCost:         e.NowCost,
			ChanceOfPlaying: chance,
			PenaltyTaker:    firstInOrder(e.PenaltiesOrder),
			CornerTaker:     firstInOrder(e.CornersAndFreekicksOrder),
			FreekickTaker:   firstInOrder(e.DirectFreekicksOrder),
			Status:          e.Status,
			UpdatedAt:       now,
		})
	}
	if err := s.store.SavePlayerContexts(ctx, players); err != nil {
		return fmt.Errorf("save players: %w", err)
	}

	teams := make([]contracts.TeamStrength, 0, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teams = append(teams, contracts.TeamStrength{
			TeamID:              int64(t.ID),
			Name:                t.Name,
			AttackStrengthHome:  t.StrengthAttackHome,
			AttackStrengthAway:  t.StrengthAttackAway,
			DefenceStrengthHome: t.StrengthDefenceHome,
			DefenceStrengthAway: t.StrengthDefenceAway,
		})
	}
	if err := s.store.SaveTeamStrengths(ctx, teams); err != nil {
		return fmt.Errorf("save team strengths: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"players": len(players),
		"teams":   len(teams),
	}).Info("bootstrap synced")
	return nil
}

// SyncRound ingests one finished gameweek: fixtures, per-player stats and
// the official dream team.
func (s *Service) SyncRound(ctx context.Context, round int) error {
	bootstrap, err := s.fpl.Bootstrap(ctx)
	if err != nil {
		return err
	}
	teamByElement := make(map[int]int, len(bootstrap.Elements))
	positionByElement := make(map[int]contracts.Position, len(bootstrap.Elements))
	for _, e := range bootstrap.Elements {
		teamByElement[e.ID] = e.Team
		positionByElement[e.ID] = contracts.PositionFromElementType(e.ElementType)
	}

	fc, err := s.syncFixtures(ctx, round)
	if err != nil {
		return err
	}

	live, err := s.fpl.EventLive(ctx, round)
	if err != nil {
		return err
	}

	records := make([]contracts.StatRecord, 0, len(live.Elements))
	for _, el := range live.Elements {
		st := el.Stats
		rec := contracts.StatRecord{
			PlayerID:        int64(el.ID),
			Round:           round,
			Minutes:         st.Minutes,
			GoalsScored:     st.GoalsScored,
			Assists:         st.Assists,
			CleanSheets:     st.CleanSheets,
			GoalsConceded:   st.GoalsConceded,
			Saves:           st.Saves,
			PenaltiesSaved:  st.PenaltiesSaved,
			PenaltiesMissed: st.PenaltiesMissed,
			YellowCards:     st.YellowCards,
			RedCards:        st.RedCards,
			OwnGoals:        st.OwnGoals,
			Bonus:           st.Bonus,
			BPS:             st.Bps,
			TotalPoints:     st.TotalPoints,
			XG:              parseDecimal(st.ExpectedGoals),
			XA:              parseDecimal(st.ExpectedAssists),
		}
		if tf, ok := fc.ForTeam(int64(teamByElement[el.ID])); ok {
			rec.WasHome = tf.IsHome
			rec.Difficulty = tf.Difficulty
		}

		// Rescore against the points table; a mismatch usually means the
		// API payload is mid-update or a rule changed under us.
		pos := positionByElement[el.ID]
		if computed := contracts.ScoreRecord(&rec, pos); computed != rec.TotalPoints {
			s.logger.WithFields(map[string]interface{}{
				"player_id": rec.PlayerID,
				"round":     round,
				"reported":  rec.TotalPoints,
				"computed":  computed,
			}).Debug("scoring mismatch")
		}

		records = append(records, rec)
	}
	if err := s.store.SaveStatRecords(ctx, records); err != nil {
		return fmt.Errorf("save stat records for round %d: %w", round, err)
	}

	dt, err := s.fpl.DreamTeam(ctx, round)
	if err != nil {
		// Older rounds occasionally 404; stats are still worth keeping
		s.logger.WithError(err).WithField("round", round).Warn("dream team unavailable")
	} else {
		dream := &contracts.DreamTeam{Round: round}
		for _, pick := range dt.Team {
			dream.Entries = append(dream.Entries, contracts.DreamTeamEntry{
				PlayerID: int64(pick.Element),
				Position: positionByElement[pick.Element],
				Points:   pick.Points,
			})
		}
		if err := s.store.SaveDreamTeam(ctx, dream); err != nil {
			return fmt.Errorf("save dream team for round %d: %w", round, err)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"round":   round,
		"records": len(records),
	}).Info("round synced")
	return nil
}

// SyncSeason ingests every finished, data-checked gameweek plus the next
// round's fixtures, and returns the next round number (0 when the season
// is over).
func (s *Service) SyncSeason(ctx context.Context) (int, error) {
	if err := s.SyncBootstrap(ctx); err != nil {
		return 0, err
	}

	bootstrap, err := s.fpl.Bootstrap(ctx)
	if err != nil {
		return 0, err
	}

	next := 0
	for _, event := range bootstrap.Events {
		switch {
		case event.Finished && event.DataChecked:
			if err := s.SyncRound(ctx, event.ID); err != nil {
				return 0, fmt.Errorf("sync round %d: %w", event.ID, err)
			}
		case event.IsNext || (event.IsCurrent && !event.Finished):
			if next == 0 {
				next = event.ID
			}
		}
	}

	if next > 0 {
		if _, err := s.syncFixtures(ctx, next); err != nil {
			s.logger.WithError(err).WithField("round", next).Warn("next round fixtures unavailable")
		}
	}
	return next, nil
}

// SyncUnderstat enriches stat records with shot and key-pass volume.
// Understat publishes season aggregates, so the totals are spread evenly
// over the rounds the player actually played.
func (s *Service) SyncUnderstat(ctx context.Context) error {
	if s.understat == nil {
		return nil
	}

	seasons, err := s.understat.LeaguePlayers(ctx)
	if err != nil {
		return err
	}
	players, err := s.store.ListPlayerContexts(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}

	matched, updated := 0, 0
	for _, player := range players {
		season, ok := understat.MatchPlayer(seasons, player.WebName)
		if !ok {
			continue
		}
		matched++

		history, err := s.store.GetStatRecords(ctx, player.PlayerID, 1<<30)
		if err != nil {
			s.logger.WithError(err).WithField("player_id", player.PlayerID).Warn("history unavailable for enrichment")
			continue
		}

		played := 0
		for _, rec := range history {
			if rec.Minutes > 0 {
				played++
			}
		}
		if played == 0 {
			continue
		}

		shotsPerGame := float64(season.ShotsTaken()) / float64(played)
		passesPerGame := float64(season.KeyPassesMade()) / float64(played)

		var changed []contracts.StatRecord
		for _, rec := range history {
			if rec.Minutes == 0 || (rec.Shots > 0 || rec.KeyPasses > 0) {
				continue
			}
			rec.Shots = int(shotsPerGame + 0.5)
			rec.KeyPasses = int(passesPerGame + 0.5)
			changed = append(changed, rec)
		}
		if len(changed) == 0 {
			continue
		}
		if err := s.store.SaveStatRecords(ctx, changed); err != nil {
			return fmt.Errorf("save enriched records for player %d: %w", player.PlayerID, err)
		}
		updated += len(changed)
	}

	s.logger.WithFields(map[string]interface{}{
		"matched": matched,
		"updated": updated,
	}).Info("understat enrichment finished")
	return nil
}

// syncFixtures saves and returns the fixture context of a round.
func (s *Service) syncFixtures(ctx context.Context, round int) (*contracts.FixtureContext, error) {
	fixtures, err := s.fpl.Fixtures(ctx, round)
	if err != nil {
		return nil, err
	}

	fc := &contracts.FixtureContext{Round: round, Fixtures: make(map[int64]contracts.TeamFixture)}
	for _, f := range fixtures {
		if f.Event == nil || *f.Event != round {
			continue
		}
		fc.Fixtures[int64(f.TeamH)] = contracts.TeamFixture{
			TeamID:     int64(f.TeamH),
			OpponentID: int64(f.TeamA),
			IsHome:     true,
			Difficulty: f.TeamHDifficulty,
		}
		fc.Fixtures[int64(f.TeamA)] = contracts.TeamFixture{
			TeamID:     int64(f.TeamA),
			OpponentID: int64(f.TeamH),
			IsHome:     false,
			Difficulty: f.TeamADifficulty,
		}
	}
	if err := s.store.SaveFixtureContext(ctx, fc); err != nil {
		return nil, fmt.Errorf("save fixtures for round %d: %w", round, err)
	}
	return fc, nil
}

func firstInOrder(order *int) bool {
	return order != nil && *order == 1
}

func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
