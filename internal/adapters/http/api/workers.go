package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/taskmatch/internal/domain/model"
)

// WorkerDependencies defines the worker directory operations.
type WorkerDependencies interface {
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	GetWorker(ctx context.Context, id string) (model.Worker, error)
	PutWorker(ctx context.Context, w model.Worker) (model.Worker, error)
}

// WorkersHandler serves /workers.
type WorkersHandler struct {
	deps WorkerDependencies
}

// NewWorkersHandler creates a new workers handler.
func NewWorkersHandler(deps WorkerDependencies) *WorkersHandler {
	return &WorkersHandler{deps: deps}
}

// workerRequest is the body of PUT /workers/{id}. Workload is derived and
// cannot be set.
type workerRequest struct {
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Email      string  `json:"email"`
	SkillLevel float64 `json:"skill_level"`
}

// HandleList handles GET /workers.
func (h *WorkersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	workers, err := h.deps.ListWorkers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

// HandleGet handles GET /workers/{id}.
func (h *WorkersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	worker, err := h.deps.GetWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// HandlePut handles PUT /workers/{id}.
func (h *WorkersHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req workerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	worker, err := h.deps.PutWorker(r.Context(), model.Worker{
		ID:         chi.URLParam(r, "id"),
		Name:       req.Name,
		Department: req.Department,
		Position:   req.Position,
		Email:      req.Email,
		SkillLevel: req.SkillLevel,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}
