package jobs

import (
	"context"

	"github.com/wonny/totw/internal/ingest"
	"github.com/wonny/totw/pkg/logger"
)

// SyncJob refreshes the store from the FPL API and Understat every morning,
// after the previous night's matches are data-checked.
type SyncJob struct {
	ingest *ingest.Service
	logger *logger.Logger
}

// NewSyncJob creates the daily sync job.
func NewSyncJob(svc *ingest.Service, log *logger.Logger) *SyncJob {
	return &SyncJob{ingest: svc, logger: log.WithField("job", "sync")}
}

func (j *SyncJob) Name() string { return "sync" }

func (j *SyncJob) Schedule() string { return "0 0 6 * * *" }

func (j *SyncJob) Run(ctx context.Context) error {
	next, err := j.ingest.SyncSeason(ctx)
	if err != nil {
		return err
	}
	if err := j.ingest.SyncUnderstat(ctx); err != nil {
		// Enrichment failure must not block the core data sync
		j.logger.WithError(err).Warn("understat enrichment failed")
	}
	j.logger.WithField("next_round", next).Info("season data synced")
	return nil
}
