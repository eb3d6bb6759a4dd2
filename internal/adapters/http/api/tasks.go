package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/taskmatch/internal/domain/model"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	idempotentReplayHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLen   = 255
)

// TaskDependencies defines task CRUD and lifecycle operations.
type TaskDependencies interface {
	ListTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, key string, in model.TaskInput) (model.Task, bool, error)
	UpdateTask(ctx context.Context, id string, in model.TaskInput) (model.Task, error)
	DeleteTask(ctx context.Context, id string) (model.Task, error)
	Assign(ctx context.Context, taskID, workerID string) (model.Task, error)
	Complete(ctx context.Context, taskID string) (model.Task, error)
	Cancel(ctx context.Context, taskID string) (model.Task, error)
}

// TasksHandler serves /tasks.
type TasksHandler struct {
	deps TaskDependencies
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(deps TaskDependencies) *TasksHandler {
	return &TasksHandler{deps: deps}
}

type assignRequest struct {
	WorkerID string `json:"worker_id"`
}

// HandleList handles GET /tasks?status=&q=&department=.
func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.TaskFilter{
		Query:      q.Get("q"),
		Department: q.Get("department"),
	}
	if raw := q.Get("status"); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		f.Status = st
	}

	tasks, err := h.deps.ListTasks(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleCreate handles POST /tasks. A repeated Idempotency-Key returns the
// task it created with 200 instead of 201.
func (h *TasksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	var in model.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	task, replayed, err := h.deps.CreateTask(r.Context(), key, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if replayed {
		w.Header().Set(idempotentReplayHeader, "true")
		writeJSON(w, http.StatusOK, task)
		return
	}
	w.Header().Set("Location", "/tasks/"+task.ID)
	writeJSON(w, http.StatusCreated, task)
}

// HandleGet handles GET /tasks/{id}.
func (h *TasksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.GetTask(r.Context(), chi.URLParam(r, "id")))
}

// HandleUpdate handles PUT /tasks/{id}.
func (h *TasksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in model.TaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.respond(w)(h.deps.UpdateTask(r.Context(), chi.URLParam(r, "id"), in))
}

// HandleDelete handles DELETE /tasks/{id}.
func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.deps.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssign handles POST /tasks/{id}/assign.
func (h *TasksHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.respond(w)(h.deps.Assign(r.Context(), chi.URLParam(r, "id"), strings.TrimSpace(req.WorkerID)))
}

// HandleComplete handles POST /tasks/{id}/complete.
func (h *TasksHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.Complete(r.Context(), chi.URLParam(r, "id")))
}

// HandleCancel handles POST /tasks/{id}/cancel.
func (h *TasksHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w)(h.deps.Cancel(r.Context(), chi.URLParam(r, "id")))
}

func (h *TasksHandler) respond(w http.ResponseWriter) func(model.Task, error) {
	return func(t model.Task, err error) {
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}
