// Package worker drains the event queue into a notification publisher.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/taskmatch/internal/adapters/mq/queue"
	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/logger"
	"github.com/okian/taskmatch/pkg/metrics"
	"github.com/zeebo/xxh3"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultPublishTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
	laneBuffer              = 64
)

// Event is what workers read off the queue.
type Event = queue.Event

// Publisher delivers an event downstream.
type Publisher interface {
	Publish(ctx context.Context, e model.TaskEvent) error
	Driver() string
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// acker is implemented by queues that track delivered events.
type acker interface {
	Ack()
}

// Worker processes events from the queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker by publishing each event it dequeues.
type InMemoryWorker struct {
	queue     Queue
	publisher Publisher
	name      string
	timeout   time.Duration

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		publisher: p,
		name:      "worker",
		timeout:   defaultPublishTimeout,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if a, ok := w.queue.(acker); ok {
				a.Ack()
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error publishing event", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker loop.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: Event must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	driver := w.publisher.Driver()
	if err := w.publisher.Publish(pctx, event); err != nil {
		metrics.RecordNotificationPublished(driver, "error")
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish_error")
		metrics.RecordErrorByType("publish_error", "medium")
		w.logger.Error(ctx, "publish failed for event",
			logger.String("event_id", event.ID),
			logger.String("task_id", event.TaskID),
			logger.String("driver", driver),
			logger.Error(err),
		)
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	metrics.RecordNotificationPublished(driver, "ok")
	w.logger.Debug(ctx, "event published",
		logger.String("event_id", event.ID),
		logger.String("type", string(event.Type)),
	)
	return nil
}

// lane is one worker's private slice of the queue. The pool acks on the
// shared queue before handing an event over, so lanes carry no acker.
type lane chan Event

func (l lane) Dequeue(context.Context) <-chan Event { return l }

// Pool fans one queue out to several workers. Every event for a task goes to
// the same worker so a task's events publish in the order they were enqueued.
type Pool struct {
	workers []*InMemoryWorker
	lanes   []lane
	queue   Queue
	stop    chan struct{}
	routed  chan struct{}
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count uses a multiple of the CPU count.
func NewPool(workerCount int, q Queue, p Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		lanes:   make([]lane, workerCount),
		queue:   q,
		stop:    make(chan struct{}),
		routed:  make(chan struct{}),
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.lanes[i] = make(lane, laneBuffer)
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(pool.lanes[i], p, wopts...)
	}

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool and the router feeding them.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.route(ctx)
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// route moves events from the shared queue onto the lane owned by their task.
// Lanes are closed once the queue is drained so workers finish what they hold.
func (p *Pool) route(ctx context.Context) {
	defer close(p.routed)
	defer func() {
		for _, l := range p.lanes {
			close(l)
		}
	}()

	events := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if a, ok := p.queue.(acker); ok {
				a.Ack()
			}
			select {
			case p.lanes[p.laneFor(event.TaskID)] <- event:
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			}
		}
	}
}

func (p *Pool) laneFor(taskID string) int {
	return int(xxh3.HashString(taskID) % uint64(len(p.lanes)))
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still running when ctx (or the pool timeout) expires are stopped without
// draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerActiveCount(0)

	if timedOut > 0 {
		p.halt()
		return fmt.Errorf("%d workers did not drain: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}

// halt releases a router blocked on a lane whose worker has stopped.
func (p *Pool) halt() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
}
