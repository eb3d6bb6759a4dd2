package notify

import (
	"context"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/logger"
)

// Enqueuer accepts events without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, e model.TaskEvent) error
}

// QueueNotifier hands committed events to a queue for asynchronous delivery.
// A full or closed queue drops the event with a warning; the mutation that
// produced it has already been committed.
type QueueNotifier struct {
	q   Enqueuer
	log logger.Logger
}

// NewQueueNotifier returns a notifier backed by q.
func NewQueueNotifier(q Enqueuer, l logger.Logger) *QueueNotifier {
	return &QueueNotifier{q: q, log: l}
}

// Notify enqueues e. Delivery failures are logged and never returned.
func (n *QueueNotifier) Notify(ctx context.Context, e model.TaskEvent) { //nolint:gocritic // hugeParam: events are passed by value
	// The request context may be cancelled as soon as the handler returns.
	if err := n.q.Enqueue(context.WithoutCancel(ctx), e); err != nil {
		n.log.Warn(ctx, "dropping task event",
			logger.String("event_id", e.ID),
			logger.String("task_id", e.TaskID),
			logger.String("type", string(e.Type)),
			logger.Error(err),
		)
	}
}
