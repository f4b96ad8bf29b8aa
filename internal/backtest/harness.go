package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/predict"
	"github.com/wonny/totw/pkg/config"
)

// Reader is what the harness needs from the store: per-round outcomes plus
// the observed dream team.
type Reader interface {
	contracts.StatReader
	contracts.DreamTeamReader
}

// Harness replays the prediction pipeline over finished rounds and scores
// each selection against that round's actual dream team. A round that cannot
// be evaluated is recorded as skipped; it never aborts the range.
type Harness struct {
	svc    *predict.Service
	reader Reader
	writer contracts.BacktestWriter

	staleness  int
	workers    int
	thresholds contracts.SummaryThresholds
	log        zerolog.Logger
}

// New creates a harness. writer may be nil to keep records in memory only.
func New(svc *predict.Service, reader Reader, writer contracts.BacktestWriter, cfg config.ModelConfig, log zerolog.Logger) *Harness {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	rules := svc.Rules().Backtest
	return &Harness{
		svc:       svc,
		reader:    reader,
		writer:    writer,
		staleness: cfg.Staleness,
		workers:   workers,
		thresholds: contracts.SummaryThresholds{
			Overlap: rules.OverlapThreshold,
			Ratio:   rules.RatioThreshold,
		},
		log: log.With().Str("component", "backtest").Logger(),
	}
}

// Run replays rounds startRound through endRound inclusive and returns the
// aggregated summary. Results are identical for any worker count: which
// rounds reuse which artifacts is decided up front, not by execution order.
func (h *Harness) Run(ctx context.Context, startRound, endRound int) (*contracts.BacktestSummary, error) {
	if startRound < 1 || endRound < startRound {
		return nil, fmt.Errorf("invalid round range [%d,%d]", startRound, endRound)
	}

	boundaries := h.boundarySchedule(startRound, endRound)
	cache := newArtifactCache(h.svc)

	records := make([]contracts.BacktestRecord, endRound-startRound+1)

	if h.workers == 1 {
		for round := startRound; round <= endRound; round++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			records[round-startRound] = h.evaluateRound(ctx, round, boundaries[round], cache)
		}
	} else {
		rounds := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < h.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for round := range rounds {
					records[round-startRound] = h.evaluateRound(ctx, round, boundaries[round], cache)
				}
			}()
		}
		for round := startRound; round <= endRound; round++ {
			rounds <- round
		}
		close(rounds)
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if h.writer != nil {
		for i := range records {
			if err := h.writer.SaveBacktestRecord(ctx, &records[i]); err != nil {
				return nil, fmt.Errorf("persist backtest record for round %d: %w", records[i].Round, err)
			}
		}
	}

	summary := contracts.Summarize(startRound, endRound, h.thresholds, records)
	h.log.Info().
		Int("start_round", startRound).
		Int("end_round", endRound).
		Int("evaluated", summary.EvaluatedRounds).
		Int("skipped", summary.SkippedRounds).
		Float64("mean_overlap", summary.MeanOverlap).
		Float64("mean_points_ratio", summary.MeanPointsRatio).
		Msg("backtest finished")

	return &summary, nil
}

// boundarySchedule fixes, per round, the training boundary its artifacts
// must have. Walking the rounds in order with the staleness tolerance makes
// the schedule independent of how rounds are later distributed to workers.
func (h *Harness) boundarySchedule(startRound, endRound int) map[int]int {
	schedule := make(map[int]int, endRound-startRound+1)
	last := -1
	for round := startRound; round <= endRound; round++ {
		fresh := round - 1
		if last >= 0 && last < round && fresh-last <= h.staleness {
			schedule[round] = last
			continue
		}
		schedule[round] = fresh
		last = fresh
	}
	return schedule
}

// evaluateRound produces one record. Every failure path degrades to a
// skipped record with a reason.
func (h *Harness) evaluateRound(ctx context.Context, round, boundary int, cache *artifactCache) contracts.BacktestRecord {
	record := contracts.BacktestRecord{Round: round, CreatedAt: time.Now().UTC()}

	skip := func(reason string, err error) contracts.BacktestRecord {
		record.Evaluated = false
		record.SkipReason = reason
		h.log.Warn().Err(err).Int("round", round).Str("reason", reason).Msg("round skipped")
		return record
	}

	if err := h.svc.EnsureHistory(ctx, round); err != nil {
		return skip("insufficient history", err)
	}

	artifacts, err := cache.get(ctx, boundary)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrModelFit):
			return skip("model fit failed", err)
		case errors.Is(err, contracts.ErrDataInsufficiency):
			return skip("insufficient history", err)
		default:
			return skip("training failed", err)
		}
	}

	if !artifacts.UsableFor(round, h.staleness) {
		return skip("stale model artifacts",
			fmt.Errorf("artifacts trained through round %d cannot serve round %d", artifacts.TrainedThrough, round))
	}

	xi, err := h.svc.GenerateXIWith(ctx, round, artifacts)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrInfeasibleFormation):
			return skip("infeasible formation", err)
		case errors.Is(err, contracts.ErrSolverTimeout):
			return skip("solver timeout", err)
		default:
			return skip("prediction failed", err)
		}
	}

	dreamTeam, err := h.reader.GetActualDreamTeam(ctx, round)
	if err != nil {
		return skip("dream team unavailable", err)
	}

	outcomes, err := h.reader.GetRoundRecords(ctx, round)
	if err != nil {
		return skip("round outcomes unavailable", err)
	}
	pointsByPlayer := make(map[int64]int, len(outcomes))
	for _, rec := range outcomes {
		pointsByPlayer[rec.PlayerID] = rec.TotalPoints
	}

	actualIDs := dreamTeam.PlayerIDs()
	overlap := 0
	predictedActual := 0
	for _, slot := range xi.Slots {
		if _, ok := actualIDs[slot.PlayerID]; ok {
			overlap++
		}
		predictedActual += pointsByPlayer[slot.PlayerID]
	}

	record.Evaluated = true
	record.PlayerOverlap = overlap
	record.PredictedTotal = xi.PredictedTotal
	record.ActualTotal = dreamTeam.TotalPoints()
	record.PredictedTeamActual = predictedActual
	record.Formation = xi.Formation
	if record.ActualTotal > 0 {
		record.PointsRatio = float64(predictedActual) / float64(record.ActualTotal)
	}

	return record
}

// artifactCache trains at most once per boundary and hands the immutable
// result to every round that shares it.
type artifactCache struct {
	svc *predict.Service

	mu         sync.Mutex
	byBoundary map[int]*cacheEntry
}

type cacheEntry struct {
	once      sync.Once
	artifacts *predict.Artifacts
	err       error
}

func newArtifactCache(svc *predict.Service) *artifactCache {
	return &artifactCache{svc: svc, byBoundary: make(map[int]*cacheEntry)}
}

// get trains artifacts through the boundary round on first use.
func (c *artifactCache) get(ctx context.Context, boundary int) (*predict.Artifacts, error) {
	c.mu.Lock()
	entry, ok := c.byBoundary[boundary]
	if !ok {
		entry = &cacheEntry{}
		c.byBoundary[boundary] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.artifacts, entry.err = c.svc.Train(ctx, boundary+1)
	})
	return entry.artifacts, entry.err
}
