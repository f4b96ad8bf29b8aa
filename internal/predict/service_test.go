package predict

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/ruleset"
	"github.com/wonny/totw/internal/store"
	"github.com/wonny/totw/pkg/config"
)

func testModelConfig() config.ModelConfig {
	return config.ModelConfig{
		Version: "v1",
		Workers: 1,
	}
}

// seedLeague populates the store with a small league: for each position a
// set of regulars who start every round and a set of fringe players who get
// cameo minutes. Deterministic so assertions can rely on exact behavior.
func seedLeague(t *testing.T, mem *store.Memory, rounds int) {
	t.Helper()
	ctx := context.Background()

	type group struct {
		pos        contracts.Position
		regulars   int
		fringe     int
		basePoints int
	}
	groups := []group{
		{contracts.PositionGKP, 2, 2, 4},
		{contracts.PositionDEF, 6, 4, 4},
		{contracts.PositionMID, 6, 4, 6},
		{contracts.PositionFWD, 4, 2, 6},
	}

	var players []contracts.PlayerContext
	var records []contracts.StatRecord
	id := int64(1)
	for _, g := range groups {
		for i := 0; i < g.regulars+g.fringe; i++ {
			regular := i < g.regulars
			players = append(players, contracts.PlayerContext{
				PlayerID: id,
				WebName:  fmt.Sprintf("%s-%d", g.pos, id),
				Position: g.pos,
				TeamID:   1 + id%4,
				NowCost:  45 + int(id)%60,
			})
			for round := 1; round <= rounds; round++ {
				rec := contracts.StatRecord{PlayerID: id, Round: round}
				if regular {
					rec.Minutes = 90
					rec.TotalPoints = g.basePoints + int(id+int64(round))%3
				} else {
					rec.Minutes = 10
					rec.TotalPoints = int(id+int64(round)) % 2
				}
				records = append(records, rec)
			}
			id++
		}
	}

	require.NoError(t, mem.SavePlayerContexts(ctx, players))
	require.NoError(t, mem.SaveStatRecords(ctx, records))
	require.NoError(t, mem.SaveTeamStrengths(ctx, []contracts.TeamStrength{
		{TeamID: 1, AttackStrengthHome: 1200, AttackStrengthAway: 1150, DefenceStrengthHome: 1100, DefenceStrengthAway: 1050},
		{TeamID: 2, AttackStrengthHome: 1000, AttackStrengthAway: 980, DefenceStrengthHome: 1020, DefenceStrengthAway: 990},
		{TeamID: 3, AttackStrengthHome: 1100, AttackStrengthAway: 1060, DefenceStrengthHome: 1080, DefenceStrengthAway: 1040},
		{TeamID: 4, AttackStrengthHome: 950, AttackStrengthAway: 930, DefenceStrengthHome: 970, DefenceStrengthAway: 940},
	}))
}

func TestGenerateXI(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 8)

	svc := NewService(mem, mem, ruleset.Default(), testModelConfig(), zerolog.Nop())

	xi, err := svc.GenerateXI(context.Background(), 9)
	require.NoError(t, err)

	require.NoError(t, ruleset.Default().Formation.Satisfies(xi))
	assert.Equal(t, 9, xi.Round)
	assert.Equal(t, "v1", xi.ModelVersion)
	assert.Greater(t, xi.PredictedTotal, 0.0)

	// The selection was persisted
	saved, err := mem.GetSelectedXI(context.Background(), 9, "v1")
	require.NoError(t, err)
	assert.Equal(t, xi.PredictedTotal, saved.PredictedTotal)
}

func TestGenerateXI_PrefersRegulars(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 8)

	svc := NewService(mem, nil, ruleset.Default(), testModelConfig(), zerolog.Nop())

	xi, err := svc.GenerateXI(context.Background(), 9)
	require.NoError(t, err)

	// Regular starters on steady points should crowd out 10-minute cameos
	players, err := mem.ListPlayerContexts(context.Background())
	require.NoError(t, err)
	byID := make(map[int64]contracts.PlayerContext)
	for _, p := range players {
		byID[p.PlayerID] = p
	}

	for _, slot := range xi.Slots {
		history, err := mem.GetStatRecords(context.Background(), slot.PlayerID, 9)
		require.NoError(t, err)
		starts := 0
		for _, rec := range history {
			if rec.Started() {
				starts++
			}
		}
		assert.Greater(t, starts, 0, "player %s never started yet was selected", byID[slot.PlayerID].WebName)
	}
}

func TestGenerateXI_InsufficientHistory(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 2)

	svc := NewService(mem, nil, ruleset.Default(), testModelConfig(), zerolog.Nop())

	_, err := svc.GenerateXI(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrDataInsufficiency))

	var insufficient *contracts.DataInsufficiencyError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Have)
	assert.Equal(t, 3, insufficient.Required)
}

func TestGenerateXI_MinRoundsFromRules(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 4)

	rules := ruleset.Default()
	rules.Backtest.MinRounds = 5
	svc := NewService(mem, nil, rules, testModelConfig(), zerolog.Nop())

	_, err := svc.GenerateXI(context.Background(), 5)
	require.Error(t, err)

	var insufficient *contracts.DataInsufficiencyError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 4, insufficient.Have)
	assert.Equal(t, 5, insufficient.Required)
}

func TestPredictRound_RejectsLeakedArtifacts(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 8)

	svc := NewService(mem, nil, ruleset.Default(), testModelConfig(), zerolog.Nop())

	artifacts, err := svc.Train(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 8, artifacts.TrainedThrough)

	// Artifacts trained through round 8 must not serve rounds 8 and below
	_, err = svc.PredictRound(context.Background(), 8, artifacts)
	assert.Error(t, err)
	_, err = svc.PredictRound(context.Background(), 5, artifacts)
	assert.Error(t, err)

	_, err = svc.PredictRound(context.Background(), 9, artifacts)
	assert.NoError(t, err)
}

func TestArtifacts_UsableFor(t *testing.T) {
	arts := &Artifacts{TrainedThrough: 8}

	assert.True(t, arts.UsableFor(9, 0))
	assert.False(t, arts.UsableFor(10, 0), "one round stale, zero tolerance")
	assert.True(t, arts.UsableFor(10, 1))
	assert.True(t, arts.UsableFor(11, 2))
	assert.False(t, arts.UsableFor(8, 3), "must never serve a round it trained on")
	assert.False(t, (*Artifacts)(nil).UsableFor(9, 0))
}

// failingStats wraps the memory store and fails history reads for one
// player. The round must still resolve without that player.
type failingStats struct {
	*store.Memory
	failID int64
}

func (f *failingStats) GetStatRecords(ctx context.Context, playerID int64, beforeRound int) ([]contracts.StatRecord, error) {
	if playerID == f.failID {
		return nil, fmt.Errorf("storage glitch for player %d", playerID)
	}
	return f.Memory.GetStatRecords(ctx, playerID, beforeRound)
}

func TestGenerateXI_PlayerFailureDoesNotFailRound(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 8)

	svc := NewService(&failingStats{Memory: mem, failID: 3}, nil, ruleset.Default(), testModelConfig(), zerolog.Nop())

	xi, err := svc.GenerateXI(context.Background(), 9)
	require.NoError(t, err)

	_, selected := xi.PlayerIDs()[3]
	assert.False(t, selected, "player with failing history must be excluded, not selected")
}

func TestGenerateBaselineXI(t *testing.T) {
	mem := store.NewMemory()
	seedLeague(t, mem, 8)

	svc := NewService(mem, nil, ruleset.Default(), testModelConfig(), zerolog.Nop())

	xi, err := svc.GenerateBaselineXI(context.Background(), 9)
	require.NoError(t, err)
	require.NoError(t, ruleset.Default().Formation.Satisfies(xi))
	assert.Equal(t, "v1-baseline", xi.ModelVersion)
	assert.Greater(t, xi.PredictedTotal, 0.0)
}
