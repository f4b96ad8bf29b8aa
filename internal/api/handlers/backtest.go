package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/wonny/totw/internal/backtest"
	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/pkg/logger"
)

// BacktestHandler serves backtest endpoints.
type BacktestHandler struct {
	harness *backtest.Harness
	reader  contracts.BacktestWriter
	logger  *logger.Logger
}

// NewBacktestHandler creates a backtest handler.
func NewBacktestHandler(harness *backtest.Harness, reader contracts.BacktestWriter, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{harness: harness, reader: reader, logger: log}
}

// RunRequest is the body of POST /api/backtests.
type RunRequest struct {
	StartRound int `json:"start_round"`
	EndRound   int `json:"end_round"`
}

// Run replays a round range and returns the summary.
// POST /api/backtests
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StartRound < 1 || req.EndRound < req.StartRound {
		respondError(w, http.StatusBadRequest, "start_round and end_round must form a valid range")
		return
	}

	summary, err := h.harness.Run(r.Context(), req.StartRound, req.EndRound)
	if err != nil {
		h.logger.WithError(err).Error("backtest failed")
		respondError(w, http.StatusInternalServerError, "backtest failed")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Records returns stored per-round records for a range.
// GET /api/backtests?start=5&end=20
func (h *BacktestHandler) Records(w http.ResponseWriter, r *http.Request) {
	start, err := strconv.Atoi(r.URL.Query().Get("start"))
	if err != nil || start < 1 {
		respondError(w, http.StatusBadRequest, "start must be a positive integer")
		return
	}
	end, err := strconv.Atoi(r.URL.Query().Get("end"))
	if err != nil || end < start {
		respondError(w, http.StatusBadRequest, "end must be at least start")
		return
	}

	records, err := h.reader.GetBacktestRecords(r.Context(), start, end)
	if err != nil {
		h.logger.WithError(err).Error("failed to load backtest records")
		respondError(w, http.StatusInternalServerError, "failed to load backtest records")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}
