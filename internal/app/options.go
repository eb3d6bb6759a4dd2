package service

import (
	"time"

	"github.com/okian/taskmatch/internal/adapters/notify"
	"github.com/okian/taskmatch/internal/adapters/repository"
	"github.com/okian/taskmatch/internal/domain/report"
	"github.com/okian/taskmatch/internal/domain/scoring"
	"github.com/okian/taskmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPublisher sets where task events are delivered. Defaults to the log.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkloadCache toggles workload memoisation. Keep it off when other
// processes write to the same store. Defaults to on.
func WithWorkloadCache(enabled bool) Option {
	return func(s *Service) {
		s.workloadCache = enabled
	}
}

// WithDedupeSize sets the number of idempotency keys remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLockStripes sets the number of per-task mutation locks.
func WithLockStripes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lockStripes = n
		}
	}
}

// WithWeeklyCapacity sets the open hours that count as full workload.
func WithWeeklyCapacity(hours float64) Option {
	return func(s *Service) {
		if hours > 0 {
			s.weeklyCapacity = hours
		}
	}
}

// WithScoringOptions configures the fitness scorer.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithReportOptions configures the recommendation reporter.
func WithReportOptions(opts ...report.Option) Option {
	return func(s *Service) {
		s.reportOpts = append(s.reportOpts, opts...)
	}
}

// WithMaxCandidatesLimit caps candidate listings.
func WithMaxCandidatesLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

// WithSeedURL loads the given snapshot into an empty store on Start.
func WithSeedURL(url string) Option {
	return func(s *Service) { s.seedURL = url }
}

// WithSnapshotURL writes a snapshot to url on Stop.
func WithSnapshotURL(url string) Option {
	return func(s *Service) { s.snapshotURL = url }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for reports and events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
