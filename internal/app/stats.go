package service

import (
	"context"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/internal/domain/types"
	"github.com/okian/taskmatch/pkg/logger"
	"github.com/okian/taskmatch/pkg/metrics"
)

// GetStats returns service statistics and refreshes the inventory gauges.
func (s *Service) GetStats(ctx context.Context) (types.Stats, error) {
	st := types.Stats{
		QueueCapacity: s.queueSize,
		TasksByStatus: make(map[string]int, len(model.Statuses)),
	}
	if s.ready() != nil {
		return st, nil
	}
	st.Started = true
	st.Store = s.store.Driver()
	st.Publisher = s.publisher.Driver()
	st.QueueLength = s.queue.Len(ctx)
	st.NotifyWorkers = s.pool.Size()
	st.IdempotencyKeys = s.deduper.Size()
	st.CachedWorkloads = s.cache.Size()

	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return st, err
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return st, err
	}

	st.Workers = len(workers)
	st.Tasks = len(tasks)
	for _, status := range model.Statuses {
		st.TasksByStatus[string(status)] = 0
	}
	for _, t := range tasks {
		st.TasksByStatus[string(t.Status)]++
	}

	metrics.UpdateWorkersTotal(st.Workers)
	for status, n := range st.TasksByStatus {
		metrics.UpdateTasksByStatus(status, n)
	}
	return st, nil
}

// RefreshGauges updates the inventory gauges; errors are logged.
func (s *Service) RefreshGauges(ctx context.Context) {
	if _, err := s.GetStats(ctx); err != nil {
		s.logger.Warn(ctx, "refreshing gauges failed", logger.Error(err))
	}
}
