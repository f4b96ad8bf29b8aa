package contracts

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Per-player issues degrade, per-round issues skip the
// round, and nothing aborts a whole backtest range.

var (
	// ErrDataInsufficiency marks too little history for a player or round.
	ErrDataInsufficiency = errors.New("insufficient historical data")
	// ErrModelFit marks malformed or empty training data.
	ErrModelFit = errors.New("model fit failed")
	// ErrInfeasibleFormation marks an unsatisfiable formation constraint set.
	ErrInfeasibleFormation = errors.New("no feasible formation")
	// ErrSolverTimeout marks an exhausted solver budget.
	ErrSolverTimeout = errors.New("solver budget exhausted")
)

// DataInsufficiencyError reports how much history exists versus required.
type DataInsufficiencyError struct {
	Round    int
	Have     int
	Required int
}

func (e *DataInsufficiencyError) Error() string {
	return fmt.Sprintf("round %d: %d rounds of history, need %d", e.Round, e.Have, e.Required)
}

func (e *DataInsufficiencyError) Unwrap() error { return ErrDataInsufficiency }

// InfeasibleFormationError reports which position made the pool infeasible.
type InfeasibleFormationError struct {
	Position Position
	Have     int
	Required int
}

func (e *InfeasibleFormationError) Error() string {
	return fmt.Sprintf("%d %s available, need at least %d", e.Have, e.Position, e.Required)
}

func (e *InfeasibleFormationError) Unwrap() error { return ErrInfeasibleFormation }
