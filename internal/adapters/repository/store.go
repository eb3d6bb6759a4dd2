// Package repository holds the task and worker records the allocation engine reads and mutates.
package repository

import (
	"context"

	"github.com/okian/taskmatch/internal/domain/model"
)

// Reader lists and fetches records. Listings are returned as independent copies.
type Reader interface {
	// ListWorkers returns every worker ordered by id.
	ListWorkers(ctx context.Context) ([]model.Worker, error)
	// ListTasks returns every task, newest first, ties by id.
	ListTasks(ctx context.Context) ([]model.Task, error)
	// GetTask returns ErrTaskNotFound for unknown ids.
	GetTask(ctx context.Context, id string) (model.Task, error)
	// GetWorker returns ErrWorkerNotFound for unknown ids.
	GetWorker(ctx context.Context, id string) (model.Worker, error)
}

// Writer mutates records.
type Writer interface {
	// CreateTask stores a new Pending, unassigned task.
	CreateTask(ctx context.Context, f model.TaskFields) (model.Task, error)
	// UpdateTask replaces the editable fields of a task.
	UpdateTask(ctx context.Context, id string, f model.TaskFields) (model.Task, error)
	// DeleteTask removes a task and returns what was removed.
	DeleteTask(ctx context.Context, id string) (model.Task, error)
	// AssignTask sets assignee and InProgress status in one step. Both the task
	// and the worker must exist; on any error nothing changes.
	AssignTask(ctx context.Context, taskID, workerID string) (model.TaskChange, error)
	// SetTaskStatus moves a task along the lifecycle.
	SetTaskStatus(ctx context.Context, taskID string, to model.Status) (model.TaskChange, error)
	// PutWorker inserts or replaces a worker record.
	PutWorker(ctx context.Context, w model.Worker) error
	// PutTask inserts or replaces a task as-is. Used for imports.
	PutTask(ctx context.Context, t model.Task) error
}

// Store provides read/write access to allocation records.
type Store interface {
	Reader
	Writer
	// Driver names the backend for logs and metrics.
	Driver() string
	Close() error
}
