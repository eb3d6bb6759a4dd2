package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/metrics"
)

const memoryDriver = "memory"

// MemoryStore keeps records in maps behind one RWMutex. Every write is applied
// under the write lock, so readers never observe a half-applied assignment.
type MemoryStore struct {
	mu      sync.RWMutex
	tasks   map[string]model.Task
	workers map[string]model.Worker
	closed  bool

	now   func() time.Time
	newID func() string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		tasks:   make(map[string]model.Task),
		workers: make(map[string]model.Worker),
		now:     time.Now,
		newID:   defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver implements Store.
func (s *MemoryStore) Driver() string { return memoryDriver }

// Close implements Store. Later calls fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(memoryDriver, op, float64(time.Since(start).Microseconds())/1000)
}

// ListWorkers implements Reader.
func (s *MemoryStore) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	defer observe("list_workers", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]model.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		out = append(out, w)
	}
	s.mu.RUnlock()

	sortWorkers(out)
	return out, nil
}

// ListTasks implements Reader.
func (s *MemoryStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	defer observe("list_tasks", time.Now())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	s.mu.RUnlock()

	SortTasks(out)
	return out, nil
}

func sortWorkers(workers []model.Worker) {
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
}

// SortTasks orders tasks newest first, then by id.
func SortTasks(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedDate.Equal(tasks[j].CreatedDate) {
			return tasks[i].CreatedDate.After(tasks[j].CreatedDate)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// GetTask implements Reader.
func (s *MemoryStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, taskNotFound(id)
	}
	return t, nil
}

// GetWorker implements Reader.
func (s *MemoryStore) GetWorker(ctx context.Context, id string) (model.Worker, error) {
	if err := ctx.Err(); err != nil {
		return model.Worker{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workers[id]
	if !ok {
		return model.Worker{}, workerNotFound(id)
	}
	return w, nil
}

// CreateTask implements Writer.
func (s *MemoryStore) CreateTask(ctx context.Context, f model.TaskFields) (model.Task, error) {
	defer observe("create_task", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}

	t := f.Apply(model.Task{
		Status:      model.StatusPending,
		CreatedDate: s.now().UTC(),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Task{}, ErrStoreClosed
	}
	for {
		t.ID = s.newID()
		if _, taken := s.tasks[t.ID]; !taken {
			break
		}
	}
	s.tasks[t.ID] = t
	return t, nil
}

// UpdateTask implements Writer.
func (s *MemoryStore) UpdateTask(ctx context.Context, id string, f model.TaskFields) (model.Task, error) {
	defer observe("update_task", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Task{}, ErrStoreClosed
	}
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, taskNotFound(id)
	}
	t = f.Apply(t)
	s.tasks[id] = t
	return t, nil
}

// DeleteTask implements Writer.
func (s *MemoryStore) DeleteTask(ctx context.Context, id string) (model.Task, error) {
	defer observe("delete_task", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Task{}, ErrStoreClosed
	}
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, taskNotFound(id)
	}
	delete(s.tasks, id)
	return t, nil
}

// AssignTask implements Writer.
func (s *MemoryStore) AssignTask(ctx context.Context, taskID, workerID string) (model.TaskChange, error) {
	defer observe("assign_task", time.Now())
	if err := ctx.Err(); err != nil {
		return model.TaskChange{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.TaskChange{}, ErrStoreClosed
	}
	before, ok := s.tasks[taskID]
	if !ok {
		return model.TaskChange{}, taskNotFound(taskID)
	}
	if _, ok := s.workers[workerID]; !ok {
		return model.TaskChange{}, workerNotFound(workerID)
	}
	after, err := model.Assign(before, workerID)
	if err != nil {
		return model.TaskChange{}, err
	}
	s.tasks[taskID] = after
	return model.TaskChange{Before: before, After: after}, nil
}

// SetTaskStatus implements Writer.
func (s *MemoryStore) SetTaskStatus(ctx context.Context, taskID string, to model.Status) (model.TaskChange, error) {
	defer observe("set_status", time.Now())
	if err := ctx.Err(); err != nil {
		return model.TaskChange{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.TaskChange{}, ErrStoreClosed
	}
	before, ok := s.tasks[taskID]
	if !ok {
		return model.TaskChange{}, taskNotFound(taskID)
	}
	after, err := model.Transition(before, to)
	if err != nil {
		return model.TaskChange{}, err
	}
	s.tasks[taskID] = after
	return model.TaskChange{Before: before, After: after}, nil
}

// PutWorker implements Writer.
func (s *MemoryStore) PutWorker(ctx context.Context, w model.Worker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := model.ValidateWorker(w); err != nil {
		return err
	}
	w.WorkloadPercent = 0

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.workers[w.ID] = w
	return nil
}

// PutTask implements Writer.
func (s *MemoryStore) PutTask(ctx context.Context, t model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateImported(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.tasks[t.ID] = t
	return nil
}

// validateImported checks the invariants a stored task must hold.
func validateImported(t model.Task) error {
	if t.ID == "" {
		return model.NewFieldError("id", "is required")
	}
	if !t.Status.Valid() {
		return model.NewFieldError("status", "is unknown")
	}
	if !t.Priority.Valid() {
		return model.NewFieldError("priority", "is unknown")
	}
	if t.Status == model.StatusPending && t.Assigned() {
		return model.NewFieldError("assigned_to", "must be empty for pending tasks")
	}
	if t.Status == model.StatusInProgress && !t.Assigned() {
		return model.NewFieldError("assigned_to", "is required for in-progress tasks")
	}
	return nil
}
