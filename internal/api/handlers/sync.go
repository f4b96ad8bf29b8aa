package handlers

import (
	"net/http"

	"github.com/wonny/totw/internal/ingest"
	"github.com/wonny/totw/pkg/logger"
)

// SyncHandler triggers data ingestion on demand.
type SyncHandler struct {
	ingest *ingest.Service
	logger *logger.Logger
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(svc *ingest.Service, log *logger.Logger) *SyncHandler {
	return &SyncHandler{ingest: svc, logger: log}
}

// Sync pulls all finished rounds from the FPL API.
// POST /api/sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	next, err := h.ingest.SyncSeason(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("sync failed")
		respondError(w, http.StatusBadGateway, "sync failed")
		return
	}

	if err := h.ingest.SyncUnderstat(r.Context()); err != nil {
		// Enrichment is best effort; the core sync already landed
		h.logger.WithError(err).Warn("understat enrichment failed")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"next_round": next,
	})
}
