package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/totw/internal/contracts"
)

// Postgres implements every repository contract against PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the store from a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// --- StatReader ---

const statColumns = `player_id, round, minutes, goals_scored, assists, clean_sheets,
	goals_conceded, saves, penalties_saved, penalties_missed, yellow_cards, red_cards,
	own_goals, bonus, bps, total_points, shots, key_passes, xg, xa, was_home, difficulty`

func scanStatRecord(row pgx.Row) (contracts.StatRecord, error) {
	var rec contracts.StatRecord
	err := row.Scan(
		&rec.PlayerID, &rec.Round, &rec.Minutes, &rec.GoalsScored, &rec.Assists,
		&rec.CleanSheets, &rec.GoalsConceded, &rec.Saves, &rec.PenaltiesSaved,
		&rec.PenaltiesMissed, &rec.YellowCards, &rec.RedCards, &rec.OwnGoals,
		&rec.Bonus, &rec.BPS, &rec.TotalPoints, &rec.Shots, &rec.KeyPasses,
		&rec.XG, &rec.XA, &rec.WasHome, &rec.Difficulty,
	)
	return rec, err
}

func (p *Postgres) GetStatRecords(ctx context.Context, playerID int64, beforeRound int) ([]contracts.StatRecord, error) {
	query := `
		SELECT ` + statColumns + `
		FROM stat_records
		WHERE player_id = $1 AND round < $2
		ORDER BY round`

	rows, err := p.pool.Query(ctx, query, playerID, beforeRound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.StatRecord
	for rows.Next() {
		rec, err := scanStatRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) GetRoundRecords(ctx context.Context, round int) ([]contracts.StatRecord, error) {
	query := `
		SELECT ` + statColumns + `
		FROM stat_records
		WHERE round = $1
		ORDER BY player_id`

	rows, err := p.pool.Query(ctx, query, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.StatRecord
	for rows.Next() {
		rec, err := scanStatRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *Postgres) FinishedRounds(ctx context.Context) ([]int, error) {
	rows, err := p.pool.Query(ctx, `SELECT DISTINCT round FROM stat_records ORDER BY round`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// --- ContextReader ---

const playerColumns = `player_id, fpl_id, web_name, position, team_id, now_cost,
	chance_of_playing, penalty_taker, corner_taker, freekick_taker, status, updated_at`

func scanPlayer(row pgx.Row) (contracts.PlayerContext, error) {
	var pc contracts.PlayerContext
	err := row.Scan(
		&pc.PlayerID, &pc.FplID, &pc.WebName, &pc.Position, &pc.TeamID, &pc.NowCost,
		&pc.ChanceOfPlaying, &pc.PenaltyTaker, &pc.CornerTaker, &pc.FreekickTaker,
		&pc.Status, &pc.UpdatedAt,
	)
	return pc, err
}

func (p *Postgres) GetPlayerContext(ctx context.Context, playerID int64) (*contracts.PlayerContext, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`

	pc, err := scanPlayer(p.pool.QueryRow(ctx, query, playerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player %d not found", playerID)
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (p *Postgres) ListPlayerContexts(ctx context.Context) ([]contracts.PlayerContext, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY player_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.PlayerContext
	for rows.Next() {
		pc, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (p *Postgres) ListTeamStrengths(ctx context.Context) ([]contracts.TeamStrength, error) {
	query := `
		SELECT team_id, name, attack_strength_home, attack_strength_away,
			   defence_strength_home, defence_strength_away
		FROM team_strengths
		ORDER BY team_id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.TeamStrength
	for rows.Next() {
		var ts contracts.TeamStrength
		if err := rows.Scan(&ts.TeamID, &ts.Name, &ts.AttackStrengthHome,
			&ts.AttackStrengthAway, &ts.DefenceStrengthHome, &ts.DefenceStrengthAway); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// --- FixtureReader ---

func (p *Postgres) GetFixtureContext(ctx context.Context, round int) (*contracts.FixtureContext, error) {
	query := `
		SELECT team_id, opponent_id, is_home, difficulty
		FROM fixtures
		WHERE round = $1`

	rows, err := p.pool.Query(ctx, query, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fc := &contracts.FixtureContext{Round: round, Fixtures: make(map[int64]contracts.TeamFixture)}
	for rows.Next() {
		var tf contracts.TeamFixture
		if err := rows.Scan(&tf.TeamID, &tf.OpponentID, &tf.IsHome, &tf.Difficulty); err != nil {
			return nil, err
		}
		fc.Fixtures[tf.TeamID] = tf
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fc.Fixtures) == 0 {
		return nil, fmt.Errorf("no fixtures for round %d", round)
	}
	return fc, nil
}

// --- DreamTeamReader ---

func (p *Postgres) GetActualDreamTeam(ctx context.Context, round int) (*contracts.DreamTeam, error) {
	query := `
		SELECT player_id, position, points
		FROM dream_teams
		WHERE round = $1
		ORDER BY player_id`

	rows, err := p.pool.Query(ctx, query, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dt := &contracts.DreamTeam{Round: round}
	for rows.Next() {
		var e contracts.DreamTeamEntry
		if err := rows.Scan(&e.PlayerID, &e.Position, &e.Points); err != nil {
			return nil, err
		}
		dt.Entries = append(dt.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dt.Entries) == 0 {
		return nil, fmt.Errorf("no dream team for round %d", round)
	}
	return dt, nil
}

// --- PredictionWriter ---

func (p *Postgres) SaveSelectedXI(ctx context.Context, xi *contracts.SelectedXI) error {
	slots, err := json.Marshal(xi.Slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}

	query := `
		INSERT INTO selections (round, model_version, formation, predicted_total, slots, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (round, model_version) DO UPDATE SET
			formation = EXCLUDED.formation,
			predicted_total = EXCLUDED.predicted_total,
			slots = EXCLUDED.slots,
			created_at = EXCLUDED.created_at`

	_, err = p.pool.Exec(ctx, query,
		xi.Round, xi.ModelVersion, xi.Formation, xi.PredictedTotal, slots, xi.CreatedAt)
	return err
}

func (p *Postgres) GetSelectedXI(ctx context.Context, round int, modelVersion string) (*contracts.SelectedXI, error) {
	query := `
		SELECT round, model_version, formation, predicted_total, slots, created_at
		FROM selections
		WHERE round = $1 AND model_version = $2`

	var xi contracts.SelectedXI
	var slots []byte
	err := p.pool.QueryRow(ctx, query, round, modelVersion).Scan(
		&xi.Round, &xi.ModelVersion, &xi.Formation, &xi.PredictedTotal, &slots, &xi.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no selection for round %d version %s", round, modelVersion)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(slots, &xi.Slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return &xi, nil
}

// --- BacktestWriter ---

func (p *Postgres) SaveBacktestRecord(ctx context.Context, record *contracts.BacktestRecord) error {
	query := `
		INSERT INTO backtest_records
			(round, evaluated, skip_reason, player_overlap, predicted_total,
			 actual_total, predicted_team_actual, points_ratio, formation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (round) DO UPDATE SET
			evaluated = EXCLUDED.evaluated,
			skip_reason = EXCLUDED.skip_reason,
			player_overlap = EXCLUDED.player_overlap,
			predicted_total = EXCLUDED.predicted_total,
			actual_total = EXCLUDED.actual_total,
			predicted_team_actual = EXCLUDED.predicted_team_actual,
			points_ratio = EXCLUDED.points_ratio,
			formation = EXCLUDED.formation,
			created_at = EXCLUDED.created_at`

	_, err := p.pool.Exec(ctx, query,
		record.Round, record.Evaluated, record.SkipReason, record.PlayerOverlap,
		record.PredictedTotal, record.ActualTotal, record.PredictedTeamActual,
		record.PointsRatio, record.Formation, record.CreatedAt)
	return err
}

func (p *Postgres) GetBacktestRecords(ctx context.Context, startRound, endRound int) ([]contracts.BacktestRecord, error) {
	query := `
		SELECT round, evaluated, skip_reason, player_overlap, predicted_total,
			   actual_total, predicted_team_actual, points_ratio, formation, created_at
		FROM backtest_records
		WHERE round BETWEEN $1 AND $2
		ORDER BY round`

	rows, err := p.pool.Query(ctx, query, startRound, endRound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.BacktestRecord
	for rows.Next() {
		var rec contracts.BacktestRecord
		if err := rows.Scan(&rec.Round, &rec.Evaluated, &rec.SkipReason,
			&rec.PlayerOverlap, &rec.PredictedTotal, &rec.ActualTotal,
			&rec.PredictedTeamActual, &rec.PointsRatio, &rec.Formation, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// --- StatWriter ---

func (p *Postgres) SaveStatRecords(ctx context.Context, records []contracts.StatRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO stat_records (` + statColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
				$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (player_id, round) DO UPDATE SET
			minutes = EXCLUDED.minutes,
			goals_scored = EXCLUDED.goals_scored,
			assists = EXCLUDED.assists,
			clean_sheets = EXCLUDED.clean_sheets,
			goals_conceded = EXCLUDED.goals_conceded,
			saves = EXCLUDED.saves,
			penalties_saved = EXCLUDED.penalties_saved,
			penalties_missed = EXCLUDED.penalties_missed,
			yellow_cards = EXCLUDED.yellow_cards,
			red_cards = EXCLUDED.red_cards,
			own_goals = EXCLUDED.own_goals,
			bonus = EXCLUDED.bonus,
			bps = EXCLUDED.bps,
			total_points = EXCLUDED.total_points,
			shots = EXCLUDED.shots,
			key_passes = EXCLUDED.key_passes,
			xg = EXCLUDED.xg,
			xa = EXCLUDED.xa,
			was_home = EXCLUDED.was_home,
			difficulty = EXCLUDED.difficulty`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.PlayerID, rec.Round, rec.Minutes, rec.GoalsScored, rec.Assists,
			rec.CleanSheets, rec.GoalsConceded, rec.Saves, rec.PenaltiesSaved,
			rec.PenaltiesMissed, rec.YellowCards, rec.RedCards, rec.OwnGoals,
			rec.Bonus, rec.BPS, rec.TotalPoints, rec.Shots, rec.KeyPasses,
			rec.XG, rec.XA, rec.WasHome, rec.Difficulty)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SavePlayerContexts(ctx context.Context, players []contracts.PlayerContext) error {
	if len(players) == 0 {
		return nil
	}

	query := `
		INSERT INTO players (` + playerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (player_id) DO UPDATE SET
			fpl_id = EXCLUDED.fpl_id,
			web_name = EXCLUDED.web_name,
			position = EXCLUDED.position,
			team_id = EXCLUDED.team_id,
			now_cost = EXCLUDED.now_cost,
			chance_of_playing = EXCLUDED.chance_of_playing,
			penalty_taker = EXCLUDED.penalty_taker,
			corner_taker = EXCLUDED.corner_taker,
			freekick_taker = EXCLUDED.freekick_taker,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	batch := &pgx.Batch{}
	for _, pc := range players {
		batch.Queue(query,
			pc.PlayerID, pc.FplID, pc.WebName, pc.Position, pc.TeamID, pc.NowCost,
			pc.ChanceOfPlaying, pc.PenaltyTaker, pc.CornerTaker, pc.FreekickTaker,
			pc.Status, pc.UpdatedAt)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range players {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveTeamStrengths(ctx context.Context, teams []contracts.TeamStrength) error {
	if len(teams) == 0 {
		return nil
	}

	query := `
		INSERT INTO team_strengths
			(team_id, name, attack_strength_home, attack_strength_away,
			 defence_strength_home, defence_strength_away)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name,
			attack_strength_home = EXCLUDED.attack_strength_home,
			attack_strength_away = EXCLUDED.attack_strength_away,
			defence_strength_home = EXCLUDED.defence_strength_home,
			defence_strength_away = EXCLUDED.defence_strength_away`

	batch := &pgx.Batch{}
	for _, ts := range teams {
		batch.Queue(query, ts.TeamID, ts.Name, ts.AttackStrengthHome,
			ts.AttackStrengthAway, ts.DefenceStrengthHome, ts.DefenceStrengthAway)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range teams {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveFixtureContext(ctx context.Context, fc *contracts.FixtureContext) error {
	if len(fc.Fixtures) == 0 {
		return nil
	}

	query := `
		INSERT INTO fixtures (round, team_id, opponent_id, is_home, difficulty)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (round, team_id) DO UPDATE SET
			opponent_id = EXCLUDED.opponent_id,
			is_home = EXCLUDED.is_home,
			difficulty = EXCLUDED.difficulty`

	batch := &pgx.Batch{}
	count := 0
	for _, tf := range fc.Fixtures {
		batch.Queue(query, fc.Round, tf.TeamID, tf.OpponentID, tf.IsHome, tf.Difficulty)
		count++
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveDreamTeam(ctx context.Context, dt *contracts.DreamTeam) error {
	if len(dt.Entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO dream_teams (round, player_id, position, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (round, player_id) DO UPDATE SET
			position = EXCLUDED.position,
			points = EXCLUDED.points`

	batch := &pgx.Batch{}
	for _, e := range dt.Entries {
		batch.Queue(query, dt.Round, e.PlayerID, e.Position, e.Points)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range dt.Entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
