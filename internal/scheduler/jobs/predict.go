package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/predict"
	"github.com/wonny/totw/pkg/logger"
)

// PredictJob generates the eleven for the upcoming round each morning,
// after the sync job has landed fresh data.
type PredictJob struct {
	svc    *predict.Service
	stats  contracts.StatReader
	logger *logger.Logger
}

// NewPredictJob creates the daily prediction job.
func NewPredictJob(svc *predict.Service, stats contracts.StatReader, log *logger.Logger) *PredictJob {
	return &PredictJob{svc: svc, stats: stats, logger: log.WithField("job", "predict")}
}

func (j *PredictJob) Name() string { return "predict" }

func (j *PredictJob) Schedule() string { return "0 30 6 * * *" }

func (j *PredictJob) Run(ctx context.Context) error {
	rounds, err := j.stats.FinishedRounds(ctx)
	if err != nil {
		return fmt.Errorf("list finished rounds: %w", err)
	}
	if len(rounds) == 0 {
		j.logger.Info("no finished rounds yet, nothing to predict")
		return nil
	}

	target := rounds[len(rounds)-1] + 1
	xi, err := j.svc.GenerateXI(ctx, target)
	if err != nil {
		return fmt.Errorf("generate eleven for round %d: %w", target, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"round":           target,
		"formation":       xi.Formation,
		"predicted_total": xi.PredictedTotal,
	}).Info("upcoming round predicted")
	return nil
}
