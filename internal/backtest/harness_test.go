package backtest

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/predict"
	"github.com/wonny/totw/internal/ruleset"
	"github.com/wonny/totw/internal/store"
	"github.com/wonny/totw/pkg/config"
)

func testModelConfig(workers, staleness int) config.ModelConfig {
	return config.ModelConfig{
		Version:   "v1",
		Workers:   workers,
		Staleness: staleness,
	}
}

// seedSeason populates the store with a deterministic league and the actual
// dream team of every round.
func seedSeason(t *testing.T, mem *store.Memory, rounds int) {
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

	byID := make(map[int64]contracts.PlayerContext, len(players))
	for _, p := range players {
		byID[p.PlayerID] = p
	}

	// The actual dream team of each round: the top scorers in a 1-4-4-2
	for round := 1; round <= rounds; round++ {
		recs, err := mem.GetRoundRecords(ctx, round)
		require.NoError(t, err)

		buckets := make(map[contracts.Position][]contracts.StatRecord)
		for _, rec := range recs {
			pos := byID[rec.PlayerID].Position
			buckets[pos] = append(buckets[pos], rec)
		}
		for pos := range buckets {
			b := buckets[pos]
			sort.Slice(b, func(i, j int) bool {
				if b[i].TotalPoints != b[j].TotalPoints {
					return b[i].TotalPoints > b[j].TotalPoints
				}
				return b[i].PlayerID < b[j].PlayerID
			})
		}

		dt := &contracts.DreamTeam{Round: round}
		take := func(pos contracts.Position, n int) {
			for _, rec := range buckets[pos][:n] {
				dt.Entries = append(dt.Entries, contracts.DreamTeamEntry{
					PlayerID: rec.PlayerID,
					Position: pos,
					Points:   rec.TotalPoints,
				})
			}
		}
		take(contracts.PositionGKP, 1)
		take(contracts.PositionDEF, 4)
		take(contracts.PositionMID, 4)
		take(contracts.PositionFWD, 2)
		require.NoError(t, mem.SaveDreamTeam(ctx, dt))
	}
}

func newHarness(mem *store.Memory, cfg config.ModelConfig) *Harness {
	svc := predict.NewService(mem, nil, ruleset.Default(), cfg, zerolog.Nop())
	return New(svc, mem, nil, cfg, zerolog.Nop())
}

func TestRun(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 9)

	h := newHarness(mem, testModelConfig(1, 0))
	summary, err := h.Run(context.Background(), 5, 9)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.StartRound)
	assert.Equal(t, 9, summary.EndRound)
	assert.Equal(t, 5, summary.EvaluatedRounds)
	assert.Equal(t, 0, summary.SkippedRounds)
	require.Len(t, summary.Records, 5)

	for _, rec := range summary.Records {
		assert.True(t, rec.Evaluated)
		assert.GreaterOrEqual(t, rec.PlayerOverlap, 0)
		assert.LessOrEqual(t, rec.PlayerOverlap, 11)
		assert.Greater(t, rec.ActualTotal, 0)
		assert.GreaterOrEqual(t, rec.PointsRatio, 0.0)
		assert.NotEmpty(t, rec.Formation)
	}
	assert.GreaterOrEqual(t, summary.MaxOverlap, summary.MinOverlap)
}

func TestRun_ThresholdsFromRules(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 9)

	rules := ruleset.Default()
	rules.Backtest.OverlapThreshold = 6
	rules.Backtest.RatioThreshold = 0.5

	svc := predict.NewService(mem, nil, rules, testModelConfig(1, 0), zerolog.Nop())
	h := New(svc, mem, nil, testModelConfig(1, 0), zerolog.Nop())

	summary, err := h.Run(context.Background(), 5, 9)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Thresholds.Overlap)
	assert.Equal(t, 0.5, summary.Thresholds.Ratio)

	atOverlap := 0
	for _, rec := range summary.Records {
		if rec.Evaluated && rec.PlayerOverlap >= 6 {
			atOverlap++
		}
	}
	assert.Equal(t, atOverlap, summary.RoundsAtOverlap)
}

func TestEvaluateRound_StaleArtifactsSkip(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 9)

	h := newHarness(mem, testModelConfig(1, 0))

	// Zero staleness tolerance: artifacts trained through round 5 must not
	// serve round 8.
	rec := h.evaluateRound(context.Background(), 8, 5, newArtifactCache(h.svc))
	assert.False(t, rec.Evaluated)
	assert.Equal(t, "stale model artifacts", rec.SkipReason)
}

func TestRun_SkipsWithoutAborting(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 7)

	// Rounds 2 and 3 lack the 3 finished rounds of history
	h := newHarness(mem, testModelConfig(1, 0))
	summary, err := h.Run(context.Background(), 2, 7)
	require.NoError(t, err)

	require.Len(t, summary.Records, 6)
	assert.False(t, summary.Records[0].Evaluated)
	assert.Equal(t, "insufficient history", summary.Records[0].SkipReason)
	assert.False(t, summary.Records[1].Evaluated)
	for _, rec := range summary.Records[2:] {
		assert.True(t, rec.Evaluated, "round %d", rec.Round)
	}
	assert.Equal(t, 2, summary.SkippedRounds)
	assert.Equal(t, 4, summary.EvaluatedRounds)
}

func TestRun_MissingDreamTeamSkipsRound(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 8)
	// Wipe round 6's dream team by reseeding a fresh store without it is
	// awkward; instead ask for a round past the seeded dream teams.
	require.NoError(t, mem.SaveStatRecords(context.Background(), []contracts.StatRecord{
		{PlayerID: 1, Round: 9, Minutes: 90, TotalPoints: 5},
	}))

	h := newHarness(mem, testModelConfig(1, 0))
	summary, err := h.Run(context.Background(), 8, 9)
	require.NoError(t, err)

	require.Len(t, summary.Records, 2)
	assert.True(t, summary.Records[0].Evaluated)
	assert.False(t, summary.Records[1].Evaluated)
	assert.Equal(t, "dream team unavailable", summary.Records[1].SkipReason)
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 9)

	sequential, err := newHarness(mem, testModelConfig(1, 1)).Run(context.Background(), 4, 9)
	require.NoError(t, err)
	parallel, err := newHarness(mem, testModelConfig(4, 1)).Run(context.Background(), 4, 9)
	require.NoError(t, err)

	require.Len(t, parallel.Records, len(sequential.Records))
	for i := range sequential.Records {
		s, p := sequential.Records[i], parallel.Records[i]
		assert.Equal(t, s.Round, p.Round)
		assert.Equal(t, s.Evaluated, p.Evaluated)
		assert.Equal(t, s.PlayerOverlap, p.PlayerOverlap)
		assert.Equal(t, s.PredictedTotal, p.PredictedTotal)
		assert.Equal(t, s.PointsRatio, p.PointsRatio)
		assert.Equal(t, s.Formation, p.Formation)
	}
	assert.Equal(t, sequential.MeanOverlap, parallel.MeanOverlap)
	assert.Equal(t, sequential.MeanPointsRatio, parallel.MeanPointsRatio)
}

func TestRun_PersistsRecords(t *testing.T) {
	mem := store.NewMemory()
	seedSeason(t, mem, 8)

	svc := predict.NewService(mem, nil, ruleset.Default(), testModelConfig(1, 0), zerolog.Nop())
	h := New(svc, mem, mem, testModelConfig(1, 0), zerolog.Nop())

	_, err := h.Run(context.Background(), 5, 8)
	require.NoError(t, err)

	saved, err := mem.GetBacktestRecords(context.Background(), 5, 8)
	require.NoError(t, err)
	assert.Len(t, saved, 4)
}

func TestRun_InvalidRange(t *testing.T) {
	h := newHarness(store.NewMemory(), testModelConfig(1, 0))

	_, err := h.Run(context.Background(), 5, 4)
	assert.Error(t, err)
	_, err = h.Run(context.Background(), 0, 4)
	assert.Error(t, err)
}

func TestBoundarySchedule(t *testing.T) {
	fresh := newHarness(store.NewMemory(), testModelConfig(1, 0))
	schedule := fresh.boundarySchedule(5, 8)
	assert.Equal(t, map[int]int{5: 4, 6: 5, 7: 6, 8: 7}, schedule)

	stale := newHarness(store.NewMemory(), testModelConfig(1, 2))
	schedule = stale.boundarySchedule(5, 10)
	// Train through 4, reuse for rounds 5-7, retrain through 7 for 8-10
	assert.Equal(t, map[int]int{5: 4, 6: 4, 7: 4, 8: 7, 9: 7, 10: 7}, schedule)
}
