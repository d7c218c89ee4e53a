package handlers

import (
	"net/http"
	"strconv"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/logger"
)

const maxRunsLimit = 200

// RunsHandler serves persisted optimization runs
type RunsHandler struct {
	runs   contracts.RunRepository // nil이면 503
	logger *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runs contracts.RunRepository, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		runs:   runs,
		logger: log,
	}
}

// RunsResponse is the response of GET /api/runs
type RunsResponse struct {
	Count int                         `json:"count"`
	Runs  []contracts.OptimizationRun `json:"runs"`
}

// List returns the most recent runs
// GET /api/runs?limit=20
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run storage not configured")
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected positive integer)")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []contracts.OptimizationRun{}
	}

	respondJSON(w, http.StatusOK, RunsResponse{
		Count: len(runs),
		Runs:  runs,
	})
}
