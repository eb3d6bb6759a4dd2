// Package service wires the allocation engine to its store, caches and
// notification pipeline, and exposes the operations the HTTP API calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/taskmatch/internal/adapters/mq/queue"
	workerpool "github.com/okian/taskmatch/internal/adapters/mq/worker"
	"github.com/okian/taskmatch/internal/adapters/notify"
	"github.com/okian/taskmatch/internal/adapters/repository"
	"github.com/okian/taskmatch/internal/domain/assignment"
	"github.com/okian/taskmatch/internal/domain/dedupe"
	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/ranking"
	"github.com/okian/taskmatch/internal/domain/report"
	"github.com/okian/taskmatch/internal/domain/scoring"
	"github.com/okian/taskmatch/internal/domain/workload"
	"github.com/okian/taskmatch/internal/tracing"
	"github.com/okian/taskmatch/pkg/logger"
	"github.com/okian/taskmatch/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultQueueSize     = 10_000
	defaultDedupeSize    = 50_000
	defaultLockStripes   = 256
	defaultMaxCandidates = 100
	stopTimeout          = 10 * time.Second
)

// Service implements the API dependencies for the allocation engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	cache     *workload.Cache
	scorer    *scoring.FitnessScorer
	reporter  *report.Reporter
	executor  *assignment.Executor
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	publisher notify.Publisher
	snapshots *repository.SnapshotFS

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	lockStripes    int
	weeklyCapacity float64
	workloadCache  bool
	maxCandidates  int
	scoringOpts    []scoring.Option
	reportOpts     []report.Option
	seedURL        string
	snapshotURL    string

	// Serialises idempotent creates so one key yields one task.
	createMu sync.Mutex

	// State
	started bool
	now     func() time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		dedupeSize:     defaultDedupeSize,
		lockStripes:    defaultLockStripes,
		weeklyCapacity: workload.DefaultWeeklyCapacityHours,
		workloadCache:  true,
		maxCandidates:  defaultMaxCandidates,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components and starts the notification workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting allocation service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithClock(s.now))
	}
	if s.publisher == nil {
		s.publisher = notify.NewLogPublisher(s.logger.Named("notify"))
	}
	s.snapshots = repository.NewSnapshotFS()

	s.cache = workload.NewCache(
		workload.New(workload.WithWeeklyCapacity(s.weeklyCapacity)),
		workload.WithCaching(s.workloadCache),
	)
	s.scorer = scoring.NewFitnessScorer(s.scoringOpts...)
	s.reporter = report.New(append([]report.Option{report.WithBreakdowns(s.scorer)}, s.reportOpts...)...)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.executor = assignment.New(s.store,
		assignment.WithInvalidator(s.cache),
		assignment.WithNotifier(notify.NewQueueNotifier(s.queue, s.logger.Named("notify"))),
		assignment.WithLockStripes(s.lockStripes),
		assignment.WithClock(s.now),
	)

	if err := s.seed(ctx); err != nil {
		return err
	}

	// Workers outlive the request that started the service.
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.publisher)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "allocation service started",
		logger.String("store", s.store.Driver()),
		logger.String("publisher", s.publisher.Driver()),
		logger.Int("notifyWorkers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// seed imports seedURL when the store holds no records yet.
func (s *Service) seed(ctx context.Context) error {
	if s.seedURL == "" {
		return nil
	}

	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(workers) > 0 || len(tasks) > 0 {
		s.logger.Info(ctx, "store not empty, skipping seed", logger.String("url", s.seedURL))
		return nil
	}

	snap, err := s.snapshots.Load(ctx, s.seedURL)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Warn(ctx, "seed file not found", logger.String("url", s.seedURL))
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := repository.Import(ctx, s.store, snap); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	s.logger.Info(ctx, "seeded store",
		logger.String("url", s.seedURL),
		logger.Int("workers", len(snap.Workers)),
		logger.Int("tasks", len(snap.Tasks)),
	)
	return nil
}

// Stop drains the notification queue, writes the snapshot and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	s.logger.Info(ctx, "stopping allocation service...")

	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}

	if s.snapshotURL != "" {
		snap, err := repository.Export(ctx, s.store)
		if err == nil {
			err = s.snapshots.Save(ctx, s.snapshotURL, snap)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("snapshot: %w", err))
		} else {
			s.logger.Info(ctx, "snapshot written", logger.String("url", s.snapshotURL))
		}
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.logger.Info(ctx, "allocation service stopped")
	return errors.Join(errs...)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// snapshot reads the worker and task lists, annotating workers with workload.
func (s *Service) snapshot(ctx context.Context) ([]model.Worker, []model.Task, error) {
	epoch := s.cache.Epoch()

	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s.cache.Fill(epoch, workers, tasks), tasks, nil
}

// ListWorkers returns every worker with its current workload.
func (s *Service) ListWorkers(ctx context.Context) (workers []model.Worker, err error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, end := tracing.Start(ctx, "service.ListWorkers")
	defer func() { end(err) }()

	workers, _, err = s.snapshot(ctx)
	return workers, err
}

// GetWorker returns one worker with its current workload.
func (s *Service) GetWorker(ctx context.Context, id string) (model.Worker, error) {
	if err := s.ready(); err != nil {
		return model.Worker{}, err
	}
	epoch := s.cache.Epoch()
	w, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return model.Worker{}, err
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return model.Worker{}, err
	}
	return s.cache.Fill(epoch, []model.Worker{w}, tasks)[0], nil
}

// PutWorker validates and stores a worker record. Workload is derived and
// any value supplied for it is ignored.
func (s *Service) PutWorker(ctx context.Context, w model.Worker) (model.Worker, error) {
	if err := s.ready(); err != nil {
		return model.Worker{}, err
	}
	w.WorkloadPercent = 0
	if err := model.ValidateWorker(w); err != nil {
		return model.Worker{}, err
	}
	if err := s.store.PutWorker(ctx, w); err != nil {
		return model.Worker{}, err
	}
	return s.GetWorker(ctx, w.ID)
}

// ListTasks returns the tasks matching f, newest first.
func (s *Service) ListTasks(ctx context.Context, f model.TaskFilter) (tasks []model.Task, err error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	ctx, end := tracing.Start(ctx, "service.ListTasks")
	defer func() { end(err) }()

	tasks, err = s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	var workers []model.Worker
	if f.Department != "" {
		if workers, err = s.store.ListWorkers(ctx); err != nil {
			return nil, err
		}
	}
	return f.Apply(tasks, workers), nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, id string) (model.Task, error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	return s.store.GetTask(ctx, id)
}

// CreateTask creates a task. A non-empty idempotency key that was already used
// returns the task it created, with replayed set.
func (s *Service) CreateTask(ctx context.Context, key string, in model.TaskInput) (task model.Task, replayed bool, err error) {
	if err := s.ready(); err != nil {
		return model.Task{}, false, err
	}
	ctx, end := tracing.Start(ctx, "service.CreateTask", attribute.Bool("idempotent", key != ""))
	defer func() { end(err) }()

	if key == "" {
		task, err = s.executor.Create(ctx, in)
		return task, false, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if id, ok := s.deduper.Lookup(ctx, key); ok {
		task, err = s.store.GetTask(ctx, id)
		switch {
		case err == nil:
			metrics.RecordIdempotentReplay()
			return task, true, nil
		case errors.Is(err, model.ErrNotFound):
			// The task was deleted since; the key is free again.
			s.deduper.Forget(ctx, key)
		default:
			return model.Task{}, false, err
		}
	}

	task, err = s.executor.Create(ctx, in)
	if err != nil {
		return model.Task{}, false, err
	}
	s.deduper.Record(ctx, key, task.ID)
	return task, false, nil
}

// UpdateTask replaces the editable fields of a task.
func (s *Service) UpdateTask(ctx context.Context, id string, in model.TaskInput) (task model.Task, err error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	ctx, end := tracing.Start(ctx, "service.UpdateTask", attribute.String("task.id", id))
	defer func() { end(err) }()
	return s.executor.Update(ctx, id, in)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) (task model.Task, err error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	ctx, end := tracing.Start(ctx, "service.DeleteTask", attribute.String("task.id", id))
	defer func() { end(err) }()
	return s.executor.Delete(ctx, id)
}

// rank scores every worker for the task and returns the full ordering.
func (s *Service) rank(ctx context.Context, taskID string) (task model.Task, candidates []ranking.Candidate, err error) {
	ctx, end := tracing.Start(ctx, "service.rank", attribute.String("task.id", taskID))
	defer func() { end(err) }()

	task, err = s.store.GetTask(ctx, taskID)
	if err != nil {
		return model.Task{}, nil, err
	}
	workers, _, err := s.snapshot(ctx)
	if err != nil {
		return model.Task{}, nil, err
	}

	candidates = ranking.Rank(s.scorer, task, workers)
	metrics.RecordCandidatesScored(len(candidates))
	tracing.Annotate(ctx, attribute.Int("candidates", len(candidates)))
	return task, candidates, nil
}

// Candidates returns the ranked workers for a task. A non-positive limit
// returns the full ranking; an explicit limit is capped by the configured maximum.
func (s *Service) Candidates(ctx context.Context, taskID string, limit int) ([]ranking.Candidate, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	_, candidates, err := s.rank(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return candidates, nil
	}
	return ranking.Top(candidates, min(limit, s.maxCandidates)), nil
}

// Recommend ranks workers for a task and explains the best candidates.
func (s *Service) Recommend(ctx context.Context, taskID string) (rep report.Report, err error) {
	if err := s.ready(); err != nil {
		return report.Report{}, err
	}
	ctx, end := tracing.Start(ctx, "service.Recommend", attribute.String("task.id", taskID))
	defer func() { end(err) }()

	start := time.Now()
	task, candidates, err := s.rank(ctx, taskID)
	if err != nil {
		return report.Report{}, err
	}
	rep = s.reporter.Explain(task, candidates, s.now())
	metrics.RecordRecommendation(float64(time.Since(start).Milliseconds()))

	s.logger.Debug(ctx, "recommendation built",
		logger.String("taskID", taskID),
		logger.Int("candidates", len(candidates)),
		logger.Bool("urgent", rep.Advisories.Urgent),
	)
	return rep, nil
}

// Assign gives a task to a worker and moves it to In Progress.
func (s *Service) Assign(ctx context.Context, taskID, workerID string) (task model.Task, err error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	ctx, end := tracing.Start(ctx, "service.Assign",
		attribute.String("task.id", taskID),
		attribute.String("worker.id", workerID),
	)
	defer func() { end(err) }()

	task, err = s.executor.Assign(ctx, taskID, workerID)
	if err != nil {
		s.logger.Debug(ctx, "assignment rejected",
			logger.String("taskID", taskID),
			logger.String("workerID", workerID),
			logger.Error(err),
		)
		return model.Task{}, err
	}
	s.logger.Info(ctx, "task assigned",
		logger.String("taskID", taskID),
		logger.String("workerID", workerID),
	)
	return task, nil
}

// Complete moves an In Progress task to Completed.
func (s *Service) Complete(ctx context.Context, taskID string) (task model.Task, err error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	ctx, end := tracing.Start(ctx, "service.Complete", attribute.String("task.id", taskID))
	defer func() { end(err) }()
	return s.executor.Complete(ctx, taskID)
}

// Cancel moves an open task to Cancelled.
func (s *Service) Cancel(ctx context.Context, taskID string) (task model.Task, err error) {
	if err := s.ready(); err != nil {
		return model.Task{}, err
	}
	ctx, end := tracing.Start(ctx, "service.Cancel", attribute.String("task.id", taskID))
	defer func() { end(err) }()
	return s.executor.Cancel(ctx, taskID)
}

// MaxCandidatesLimit is the cap applied by Candidates.
func (s *Service) MaxCandidatesLimit() int { return s.maxCandidates }
