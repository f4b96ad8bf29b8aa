package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/totw/internal/contracts"
)

// Memory is an in-memory implementation of every repository contract.
// It backs tests and offline dry runs; the pgx-backed store is the
// production implementation.
type Memory struct {
	mu sync.RWMutex

	stats      map[int64][]contracts.StatRecord // per player, round ascending
	players    map[int64]contracts.PlayerContext
	strengths  map[int64]contracts.TeamStrength
	fixtures   map[int]*contracts.FixtureContext
	dreamTeams map[int]*contracts.DreamTeam
	selections map[string]*contracts.SelectedXI // key: round/version
	backtests  []contracts.BacktestRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		stats:      make(map[int64][]contracts.StatRecord),
		players:    make(map[int64]contracts.PlayerContext),
		strengths:  make(map[int64]contracts.TeamStrength),
		fixtures:   make(map[int]*contracts.FixtureContext),
		dreamTeams: make(map[int]*contracts.DreamTeam),
		selections: make(map[string]*contracts.SelectedXI),
	}
}

func selectionKey(round int, version string) string {
	return fmt.Sprintf("%d/%s", round, version)
}

// --- StatReader ---

func (m *Memory) GetStatRecords(_ context.Context, playerID int64, beforeRound int) ([]contracts.StatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contracts.StatRecord
	for _, rec := range m.stats[playerID] {
		if rec.Round < beforeRound {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) GetRoundRecords(_ context.Context, round int) ([]contracts.StatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contracts.StatRecord
	for _, recs := range m.stats {
		for _, rec := range recs {
			if rec.Round == round {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (m *Memory) FinishedRounds(_ context.Context) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int]struct{})
	for _, recs := range m.stats {
		for _, rec := range recs {
			seen[rec.Round] = struct{}{}
		}
	}
	rounds := make([]int, 0, len(seen))
	for r := range seen {
		rounds = append(rounds, r)
	}
	sort.Ints(rounds)
	return rounds, nil
}

// --- ContextReader ---

func (m *Memory) GetPlayerContext(_ context.Context, playerID int64) (*contracts.PlayerContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pc, ok := m.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %d not found", playerID)
	}
	return &pc, nil
}

func (m *Memory) ListPlayerContexts(_ context.Context) ([]contracts.PlayerContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]contracts.PlayerContext, 0, len(m.players))
	for _, pc := range m.players {
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

func (m *Memory) ListTeamStrengths(_ context.Context) ([]contracts.TeamStrength, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]contracts.TeamStrength, 0, len(m.strengths))
	for _, ts := range m.strengths {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

// --- FixtureReader ---

func (m *Memory) GetFixtureContext(_ context.Context, round int) (*contracts.FixtureContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fc, ok := m.fixtures[round]
	if !ok {
		return nil, fmt.Errorf("no fixture context for round %d", round)
	}
	return fc, nil
}

// --- DreamTeamReader ---

func (m *Memory) GetActualDreamTeam(_ context.Context, round int) (*contracts.DreamTeam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dt, ok := m.dreamTeams[round]
	if !ok {
		return nil, fmt.Errorf("no dream team for round %d", round)
	}
	return dt, nil
}

// --- PredictionWriter ---

func (m *Memory) SaveSelectedXI(_ context.Context, xi *contracts.SelectedXI) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.selections[selectionKey(xi.Round, xi.ModelVersion)] = xi
	return nil
}

func (m *Memory) GetSelectedXI(_ context.Context, round int, modelVersion string) (*contracts.SelectedXI, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	xi, ok := m.selections[selectionKey(round, modelVersion)]
	if !ok {
		return nil, fmt.Errorf("no selection for round %d version %s", round, modelVersion)
	}
	return xi, nil
}

// --- BacktestWriter ---

func (m *Memory) SaveBacktestRecord(_ context.Context, record *contracts.BacktestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.backtests = append(m.backtests, *record)
	return nil
}

func (m *Memory) GetBacktestRecords(_ context.Context, startRound, endRound int) ([]contracts.BacktestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []contracts.BacktestRecord
	for _, rec := range m.backtests {
		if rec.Round >= startRound && rec.Round <= endRound {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out, nil
}

// --- StatWriter ---

func (m *Memory) SaveStatRecords(_ context.Context, records []contracts.StatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		existing := m.stats[rec.PlayerID]
		replaced := false
		for i, old := range existing {
			if old.Round == rec.Round {
				existing[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}
		sort.Slice(existing, func(i, j int) bool { return existing[i].Round < existing[j].Round })
		m.stats[rec.PlayerID] = existing
	}
	return nil
}

func (m *Memory) SavePlayerContexts(_ context.Context, players []contracts.PlayerContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pc := range players {
		m.players[pc.PlayerID] = pc
	}
	return nil
}

func (m *Memory) SaveTeamStrengths(_ context.Context, teams []contracts.TeamStrength) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ts := range teams {
		m.strengths[ts.TeamID] = ts
	}
	return nil
}

func (m *Memory) SaveFixtureContext(_ context.Context, fc *contracts.FixtureContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fixtures[fc.Round] = fc
	return nil
}

func (m *Memory) SaveDreamTeam(_ context.Context, dt *contracts.DreamTeam) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dreamTeams[dt.Round] = dt
	return nil
}
