package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/okian/taskmatch/internal/domain/ranking"
	"github.com/okian/taskmatch/internal/domain/report"
	"github.com/okian/taskmatch/internal/domain/types"
)

// RecommendDependencies defines the ranking operations.
type RecommendDependencies interface {
	Candidates(ctx context.Context, taskID string, limit int) ([]ranking.Candidate, error)
	Recommend(ctx context.Context, taskID string) (report.Report, error)
}

// RecommendHandler serves candidate rankings and recommendations.
type RecommendHandler struct {
	deps RecommendDependencies
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(deps RecommendDependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandleCandidates handles GET /tasks/{id}/candidates?limit=.
// Without a limit the full ranking is returned.
func (h *RecommendHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", errInvalidLimit)
			return
		}
		limit = n
	}

	candidates, err := h.deps.Candidates(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Entries(candidates))
}

// HandleRecommendation handles GET /tasks/{id}/recommendation.
func (h *RecommendHandler) HandleRecommendation(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Recommend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
