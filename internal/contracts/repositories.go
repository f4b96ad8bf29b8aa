package contracts

import "context"

// Repository interfaces for the external store. The engine depends on these
// only; internal/store provides the PostgreSQL implementations.

// StatReader reads historical per-round stat records.
type StatReader interface {
	// GetStatRecords returns a player's records with round < beforeRound,
	// ordered by round ascending.
	GetStatRecords(ctx context.Context, playerID int64, beforeRound int) ([]StatRecord, error)
	// GetRoundRecords returns all players' records for a single round.
	GetRoundRecords(ctx context.Context, round int) ([]StatRecord, error)
	// FinishedRounds returns the rounds with complete data, ascending.
	FinishedRounds(ctx context.Context) ([]int, error)
}

// ContextReader reads player and team context.
type ContextReader interface {
	GetPlayerContext(ctx context.Context, playerID int64) (*PlayerContext, error)
	ListPlayerContexts(ctx context.Context) ([]PlayerContext, error)
	ListTeamStrengths(ctx context.Context) ([]TeamStrength, error)
}

// FixtureReader reads fixture metadata for a round.
type FixtureReader interface {
	GetFixtureContext(ctx context.Context, round int) (*FixtureContext, error)
}

// DreamTeamReader reads ground truth for finished rounds (backtest only).
type DreamTeamReader interface {
	GetActualDreamTeam(ctx context.Context, round int) (*DreamTeam, error)
}

// PredictionWriter persists selected teams and their per-player predictions.
type PredictionWriter interface {
	SaveSelectedXI(ctx context.Context, xi *SelectedXI) error
	GetSelectedXI(ctx context.Context, round int, modelVersion string) (*SelectedXI, error)
}

// BacktestWriter persists backtest records.
type BacktestWriter interface {
	SaveBacktestRecord(ctx context.Context, record *BacktestRecord) error
	GetBacktestRecords(ctx context.Context, startRound, endRound int) ([]BacktestRecord, error)
}

// StatWriter persists ingested data. Used by the ingestion layer only.
type StatWriter interface {
	SaveStatRecords(ctx context.Context, records []StatRecord) error
	SavePlayerContexts(ctx context.Context, players []PlayerContext) error
	SaveTeamStrengths(ctx context.Context, teams []TeamStrength) error
	SaveFixtureContext(ctx context.Context, fc *FixtureContext) error
	SaveDreamTeam(ctx context.Context, dt *DreamTeam) error
}

// HistoryReader bundles the read interfaces the prediction engine needs.
type HistoryReader interface {
	StatReader
	ContextReader
	FixtureReader
}
