package predict

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/totw/internal/compose"
	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/features"
	"github.com/wonny/totw/internal/model"
	"github.com/wonny/totw/internal/ruleset"
	"github.com/wonny/totw/internal/solver"
	"github.com/wonny/totw/pkg/config"
)

// Service runs the prediction pipeline for one target round: derive
// features, fit the minutes and points models on earlier rounds, compose
// per-player expectations and solve the eleven.
type Service struct {
	store    contracts.HistoryReader
	writer   contracts.PredictionWriter
	rules    *ruleset.Rules
	builder  *features.Builder
	minutes  *model.MinutesModel
	points   *model.PointsModel
	baseline *model.Baseline
	solver   *solver.Solver

	minRounds int
	version   string
	log       zerolog.Logger
}

// Artifacts bundles the fitted models for one training boundary. Immutable,
// safe to share across goroutines and to reuse for nearby target rounds.
type Artifacts struct {
	Minutes        *model.MinutesArtifact
	Points         *model.PointsArtifact
	TrainedThrough int
}

// UsableFor reports whether artifacts trained through some round may serve
// a target round: they must not have seen the target round's outcomes, and
// may lag the freshest possible boundary by at most staleness rounds.
func (a *Artifacts) UsableFor(targetRound, staleness int) bool {
	if a == nil || a.TrainedThrough >= targetRound {
		return false
	}
	return (targetRound-1)-a.TrainedThrough <= staleness
}

// NewService wires the pipeline. writer may be nil when persistence is not
// wanted (backtests keep their own records).
func NewService(
	store contracts.HistoryReader,
	writer contracts.PredictionWriter,
	rules *ruleset.Rules,
	cfg config.ModelConfig,
	log zerolog.Logger,
) *Service {
	builder := features.NewBuilder(rules.Features, log)
	names := builder.FeatureNames()

	return &Service{
		store:     store,
		writer:    writer,
		rules:     rules,
		builder:   builder,
		minutes:   model.NewMinutesModel(rules.Minutes, rules.Features, names, log),
		points:    model.NewPointsModel(rules.Points, names, log),
		baseline:  model.NewBaseline(rules.Baseline, rules.Features),
		solver:    solver.New(rules.Formation, cfg.SolverBudget, log),
		minRounds: rules.Backtest.MinRounds,
		version:   cfg.Version,
		log:       log.With().Str("component", "predict").Logger(),
	}
}

// Version returns the configured model version tag.
func (s *Service) Version() string { return s.version }

// Rules exposes the loaded strategy rules, e.g. for the backtest thresholds.
func (s *Service) Rules() *ruleset.Rules { return s.rules }

// GenerateXI runs the full pipeline for targetRound and persists the result
// when a writer is configured.
func (s *Service) GenerateXI(ctx context.Context, targetRound int) (*contracts.SelectedXI, error) {
	if err := s.EnsureHistory(ctx, targetRound); err != nil {
		return nil, err
	}

	artifacts, err := s.Train(ctx, targetRound)
	if err != nil {
		return nil, err
	}

	xi, err := s.GenerateXIWith(ctx, targetRound, artifacts)
	if err != nil {
		return nil, err
	}

	if s.writer != nil {
		if err := s.writer.SaveSelectedXI(ctx, xi); err != nil {
			return nil, fmt.Errorf("persist selected XI: %w", err)
		}
	}

	s.log.Info().
		Int("round", targetRound).
		Str("formation", xi.Formation).
		Float64("predicted_total", xi.PredictedTotal).
		Msg("eleven generated")

	return xi, nil
}

// GenerateXIWith predicts and solves targetRound from already-fitted
// artifacts, without persisting. Backtests use this to reuse artifacts
// across nearby rounds.
func (s *Service) GenerateXIWith(ctx context.Context, targetRound int, artifacts *Artifacts) (*contracts.SelectedXI, error) {
	pool, err := s.PredictRound(ctx, targetRound, artifacts)
	if err != nil {
		return nil, err
	}
	return s.solver.Solve(targetRound, s.version, pool, solver.Options{})
}

// GenerateBaselineXI solves an eleven from the weighted-form comparator
// instead of the learned models. Never persisted.
func (s *Service) GenerateBaselineXI(ctx context.Context, targetRound int) (*contracts.SelectedXI, error) {
	if err := s.EnsureHistory(ctx, targetRound); err != nil {
		return nil, err
	}

	inputs, err := s.roundInputs(ctx, targetRound)
	if err != nil {
		return nil, err
	}

	var pool []contracts.Prediction
	for _, in := range inputs {
		pool = append(pool, contracts.Prediction{
			PlayerID:       in.player.PlayerID,
			Round:          targetRound,
			Position:       in.player.Position,
			ExpectedPoints: s.baseline.Predict(in.fv),
			Confidence:     in.fv.HistoryCompleteness(),
			NowCost:        in.player.NowCost,
		})
	}

	return s.solver.Solve(targetRound, s.version+"-baseline", pool, solver.Options{})
}

// EnsureHistory enforces the minimum finished rounds before targetRound.
func (s *Service) EnsureHistory(ctx context.Context, targetRound int) error {
	rounds, err := s.store.FinishedRounds(ctx)
	if err != nil {
		return fmt.Errorf("list finished rounds: %w", err)
	}
	have := 0
	for _, r := range rounds {
		if r < targetRound {
			have++
		}
	}
	if have < s.minRounds {
		return &contracts.DataInsufficiencyError{Round: targetRound, Have: have, Required: s.minRounds}
	}
	return nil
}

// Train fits both models on every outcome strictly before targetRound and
// stamps the artifacts with the training boundary.
func (s *Service) Train(ctx context.Context, targetRound int) (*Artifacts, error) {
	players, err := s.store.ListPlayerContexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	strengths, err := s.teamStrengths(ctx)
	if err != nil {
		return nil, err
	}

	rounds, err := s.store.FinishedRounds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list finished rounds: %w", err)
	}
	fixtures := make(map[int]*contracts.FixtureContext)
	trainedThrough := 0
	for _, r := range rounds {
		if r >= targetRound {
			continue
		}
		if r > trainedThrough {
			trainedThrough = r
		}
		fc, err := s.store.GetFixtureContext(ctx, r)
		if err != nil {
			// Fixture context is optional; features fall back to neutral
			s.log.Warn().Err(err).Int("round", r).Msg("fixture context unavailable")
			continue
		}
		fixtures[r] = fc
	}

	var rows []model.TrainingRow
	for i := range players {
		player := &players[i]
		history, err := s.store.GetStatRecords(ctx, player.PlayerID, targetRound)
		if err != nil {
			s.log.Warn().Err(err).Int64("player_id", player.PlayerID).Msg("history unavailable, player excluded from training")
			continue
		}
		for _, rec := range history {
			fv := s.builder.Build(player, rec.Round, history, fixtures[rec.Round], strengths)
			rows = append(rows, model.TrainingRow{
				Features:    fv,
				Minutes:     rec.Minutes,
				TotalPoints: rec.TotalPoints,
			})
		}
	}

	minutesArt, err := s.minutes.Fit(rows, trainedThrough)
	if err != nil {
		return nil, err
	}
	pointsArt, err := s.points.Fit(rows, trainedThrough)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("target_round", targetRound).
		Int("trained_through", trainedThrough).
		Int("training_rows", len(rows)).
		Msg("models fitted")

	return &Artifacts{Minutes: minutesArt, Points: pointsArt, TrainedThrough: trainedThrough}, nil
}

// PredictRound composes an expectation for every known player. A failure on
// one player excludes that player, never the round.
func (s *Service) PredictRound(ctx context.Context, targetRound int, artifacts *Artifacts) ([]contracts.Prediction, error) {
	if artifacts.TrainedThrough >= targetRound {
		return nil, fmt.Errorf("artifacts trained through round %d cannot predict round %d", artifacts.TrainedThrough, targetRound)
	}

	inputs, err := s.roundInputs(ctx, targetRound)
	if err != nil {
		return nil, err
	}

	pool := make([]contracts.Prediction, 0, len(inputs))
	for _, in := range inputs {
		startProb, expectedMinutes := artifacts.Minutes.Predict(in.fv)
		pointsGiven90 := artifacts.Points.Predict(in.fv)
		pool = append(pool, compose.Compose(in.player, in.fv, startProb, expectedMinutes, pointsGiven90))
	}
	return pool, nil
}

type roundInput struct {
	player *contracts.PlayerContext
	fv     *contracts.FeatureVector
}

// roundInputs builds the feature vector for every player for targetRound.
func (s *Service) roundInputs(ctx context.Context, targetRound int) ([]roundInput, error) {
	players, err := s.store.ListPlayerContexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	strengths, err := s.teamStrengths(ctx)
	if err != nil {
		return nil, err
	}
	fixture, err := s.store.GetFixtureContext(ctx, targetRound)
	if err != nil {
		s.log.Warn().Err(err).Int("round", targetRound).Msg("fixture context unavailable, using neutral fixtures")
		fixture = nil
	}

	inputs := make([]roundInput, 0, len(players))
	for i := range players {
		player := &players[i]
		history, err := s.store.GetStatRecords(ctx, player.PlayerID, targetRound)
		if err != nil {
			s.log.Warn().Err(err).Int64("player_id", player.PlayerID).Msg("history unavailable, player excluded")
			continue
		}
		inputs = append(inputs, roundInput{
			player: player,
			fv:     s.builder.Build(player, targetRound, history, fixture, strengths),
		})
	}
	return inputs, nil
}

func (s *Service) teamStrengths(ctx context.Context) (map[int64]contracts.TeamStrength, error) {
	list, err := s.store.ListTeamStrengths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team strengths: %w", err)
	}
	strengths := make(map[int64]contracts.TeamStrength, len(list))
	for _, ts := range list {
		strengths[ts.TeamID] = ts
	}
	return strengths, nil
}
