// Package assignment commits task assignments and lifecycle changes.
package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/metrics"
)

// Store is the record access the executor needs. AssignTask must apply
// assignee and status together and must not mutate anything on error.
type Store interface {
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, f model.TaskFields) (model.Task, error)
	UpdateTask(ctx context.Context, id string, f model.TaskFields) (model.Task, error)
	DeleteTask(ctx context.Context, id string) (model.Task, error)
	AssignTask(ctx context.Context, taskID, workerID string) (model.TaskChange, error)
	SetTaskStatus(ctx context.Context, taskID string, to model.Status) (model.TaskChange, error)
}

// Invalidator drops derived workload for workers whose open tasks changed.
type Invalidator interface {
	Invalidate(workerIDs ...string)
}

// Notifier receives committed changes. It must not block.
type Notifier interface {
	Notify(ctx context.Context, ev model.TaskEvent)
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(...string) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.TaskEvent) {}

// Executor runs every task mutation inside a per-task critical section, so
// concurrent calls on one task id apply one after another.
type Executor struct {
	store       Store
	locks       *stripedLocks
	invalidator Invalidator
	notifier    Notifier
	now         func() time.Time
	newID       func() string
}

// New creates an Executor over store.
func New(store Store, opts ...Option) *Executor {
	e := &Executor{
		store:       store,
		locks:       newStripedLocks(defaultLockStripes),
		invalidator: nopInvalidator{},
		notifier:    nopNotifier{},
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assign gives the task to workerID and moves it to InProgress. Missing task or
// worker yields ErrNotFound and terminal tasks yield ErrInvalidTransition; in
// both cases nothing is mutated.
func (e *Executor) Assign(ctx context.Context, taskID, workerID string) (model.Task, error) {
	if workerID == "" {
		metrics.RecordAssignment(outcome(model.ErrInvalidInput))
		return model.Task{}, model.NewFieldError("worker_id", "is required")
	}

	unlock := e.locks.lock(taskID)
	defer unlock()

	ch, err := e.store.AssignTask(ctx, taskID, workerID)
	if err != nil {
		metrics.RecordAssignment(outcome(err))
		return model.Task{}, err
	}
	metrics.RecordAssignment("assigned")
	e.committed(ctx, ch)
	return ch.After, nil
}

// Complete moves an InProgress task to Completed.
func (e *Executor) Complete(ctx context.Context, taskID string) (model.Task, error) {
	return e.transition(ctx, taskID, model.StatusCompleted)
}

// Cancel moves a Pending or InProgress task to Cancelled.
func (e *Executor) Cancel(ctx context.Context, taskID string) (model.Task, error) {
	return e.transition(ctx, taskID, model.StatusCancelled)
}

func (e *Executor) transition(ctx context.Context, taskID string, to model.Status) (model.Task, error) {
	unlock := e.locks.lock(taskID)
	defer unlock()

	ch, err := e.store.SetTaskStatus(ctx, taskID, to)
	if err != nil {
		return model.Task{}, err
	}
	e.committed(ctx, ch)
	return ch.After, nil
}

// committed runs the post-commit hooks for a status change.
func (e *Executor) committed(ctx context.Context, ch model.TaskChange) {
	e.invalidator.Invalidate(affected(ch.Before, ch.After)...)
	metrics.RecordStatusTransition(string(ch.Before.Status), string(ch.After.Status))

	ev := model.TaskEvent{
		ID:       e.newID(),
		Type:     model.EventTypeFor(ch.After.Status),
		TaskID:   ch.After.ID,
		WorkerID: ch.After.AssignedTo,
		Status:   ch.After.Status,
		At:       e.now().UTC(),
	}
	if ch.Before.AssignedTo != ch.After.AssignedTo {
		ev.PreviousWorkerID = ch.Before.AssignedTo
	}
	e.notifier.Notify(ctx, ev)
}

// Create validates input and stores a new Pending task.
func (e *Executor) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	f, err := in.Validate()
	if err != nil {
		return model.Task{}, err
	}
	t, err := e.store.CreateTask(ctx, f)
	if err != nil {
		return model.Task{}, err
	}
	metrics.RecordTaskMutation("created")
	return t, nil
}

// Update validates input and replaces the editable fields of a task.
func (e *Executor) Update(ctx context.Context, taskID string, in model.TaskInput) (model.Task, error) {
	f, err := in.Validate()
	if err != nil {
		return model.Task{}, err
	}

	unlock := e.locks.lock(taskID)
	defer unlock()

	t, err := e.store.UpdateTask(ctx, taskID, f)
	if err != nil {
		return model.Task{}, err
	}
	if t.Status.Open() {
		// Hours feed the assignee's workload.
		e.invalidator.Invalidate(t.AssignedTo)
	}
	metrics.RecordTaskMutation("updated")
	return t, nil
}

// Delete removes a task; an open task frees its assignee's hours.
func (e *Executor) Delete(ctx context.Context, taskID string) (model.Task, error) {
	unlock := e.locks.lock(taskID)
	defer unlock()

	t, err := e.store.DeleteTask(ctx, taskID)
	if err != nil {
		return model.Task{}, err
	}
	if t.Status.Open() {
		e.invalidator.Invalidate(t.AssignedTo)
	}
	metrics.RecordTaskMutation("deleted")
	return t, nil
}

// affected lists assignees whose open hours differ between before and after.
func affected(before, after model.Task) []string {
	var ids []string
	if before.AssignedTo != "" && before.Status.Open() {
		ids = append(ids, before.AssignedTo)
	}
	if after.AssignedTo != "" && after.AssignedTo != before.AssignedTo {
		ids = append(ids, after.AssignedTo)
	}
	return ids
}

func outcome(err error) string {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
