package assignment

import (
	"time"
)

// Option applies a configuration option to the Executor.
type Option func(*Executor)

// WithInvalidator is told which workers' workload changed after each commit.
func WithInvalidator(inv Invalidator) Option {
	return func(e *Executor) {
		if inv != nil {
			e.invalidator = inv
		}
	}
}

// WithNotifier receives an event after every committed assignment or status change.
func WithNotifier(n Notifier) Option {
	return func(e *Executor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithLockStripes sets the number of per-task mutex stripes.
func WithLockStripes(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.locks = newStripedLocks(n)
		}
	}
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithEventIDs sets how event ids are minted.
func WithEventIDs(gen func() string) Option {
	return func(e *Executor) {
		if gen != nil {
			e.newID = gen
		}
	}
}
