package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/totw/internal/contracts"
	"github.com/wonny/totw/internal/predict"
	"github.com/wonny/totw/pkg/logger"
)

// PredictionHandler serves selected-eleven endpoints.
type PredictionHandler struct {
	svc    *predict.Service
	reader contracts.PredictionWriter
	logger *logger.Logger
}

// NewPredictionHandler creates a prediction handler.
func NewPredictionHandler(svc *predict.Service, reader contracts.PredictionWriter, log *logger.Logger) *PredictionHandler {
	return &PredictionHandler{svc: svc, reader: reader, logger: log}
}

// Get returns the stored eleven for a round.
// GET /api/predictions/{round}
func (h *PredictionHandler) Get(w http.ResponseWriter, r *http.Request) {
	round, ok := roundParam(w, r)
	if !ok {
		return
	}

	version := r.URL.Query().Get("version")
	if version == "" {
		version = h.svc.Version()
	}

	xi, err := h.reader.GetSelectedXI(r.Context(), round, version)
	if err != nil {
		respondError(w, http.StatusNotFound, "no prediction stored for this round")
		return
	}

	respondJSON(w, http.StatusOK, xi)
}

// Generate runs the pipeline for a round and stores the result.
// POST /api/predictions/{round}
func (h *PredictionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	round, ok := roundParam(w, r)
	if !ok {
		return
	}

	xi, err := h.svc.GenerateXI(r.Context(), round)
	if err != nil {
		h.logger.WithError(err).WithField("round", round).Error("prediction failed")
		switch {
		case errors.Is(err, contracts.ErrDataInsufficiency):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, contracts.ErrInfeasibleFormation), errors.Is(err, contracts.ErrModelFit):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "prediction failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, xi)
}

// roundParam parses the {round} path variable.
func roundParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	round, err := strconv.Atoi(mux.Vars(r)["round"])
	if err != nil || round < 1 {
		respondError(w, http.StatusBadRequest, "round must be a positive integer")
		return 0, false
	}
	return round, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
