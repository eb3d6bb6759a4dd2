package workload

import (
	"sync/atomic"

	"github.com/okian/taskmatch/internal/domain/model"
	"github.com/okian/taskmatch/pkg/metrics"
	"github.com/puzpuzpuz/xsync/v4"
)

// Cache memoises per-worker workload between task mutations.
//
// Values are tagged with the epoch observed before the task snapshot was read.
// Invalidate bumps the epoch before dropping entries, so a value computed from a
// snapshot that predates an invalidation is never stored.
//
// The cache only sees invalidations made through this process. Disable it
// when other processes write to the same store.
type Cache struct {
	calc     *Calculator
	disabled bool
	epoch    atomic.Uint64
	values   *xsync.Map[string, float64]
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCaching turns memoisation on or off. A disabled cache computes every
// workload from the snapshot it is given.
func WithCaching(enabled bool) CacheOption {
	return func(c *Cache) { c.disabled = !enabled }
}

// NewCache creates a Cache backed by calc.
func NewCache(calc *Calculator, opts ...CacheOption) *Cache {
	if calc == nil {
		calc = New()
	}
	c := &Cache{calc: calc, values: xsync.NewMap[string, float64]()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether computed values are kept.
func (c *Cache) Enabled() bool { return !c.disabled }

// Epoch returns the token to pass to Fill. Read it before listing tasks.
func (c *Cache) Epoch() uint64 { return c.epoch.Load() }

// Lookup returns a cached workload.
func (c *Cache) Lookup(workerID string) (float64, bool) {
	v, ok := c.values.Load(workerID)
	if ok {
		metrics.RecordWorkloadCacheHit()
	} else {
		metrics.RecordWorkloadCacheMiss()
	}
	return v, ok
}

// Fill annotates workers, serving cached values where present and computing the
// rest from tasks. Computed values are kept only if no invalidation happened since epoch.
func (c *Cache) Fill(epoch uint64, workers []model.Worker, tasks []model.Task) []model.Worker {
	out := make([]model.Worker, len(workers))
	var hours map[string]int
	for i, w := range workers {
		if c.disabled {
			if hours == nil {
				hours = HoursByWorker(tasks)
			}
			w.WorkloadPercent = c.calc.percent(hours[w.ID])
			out[i] = w
			continue
		}
		if v, ok := c.Lookup(w.ID); ok {
			w.WorkloadPercent = v
			out[i] = w
			continue
		}
		if hours == nil {
			hours = HoursByWorker(tasks)
		}
		w.WorkloadPercent = c.calc.percent(hours[w.ID])
		c.store(epoch, w.ID, w.WorkloadPercent)
		out[i] = w
	}
	return out
}

func (c *Cache) store(epoch uint64, workerID string, v float64) {
	c.values.Compute(workerID, func(old float64, loaded bool) (float64, xsync.ComputeOp) {
		if c.epoch.Load() != epoch {
			return old, xsync.CancelOp
		}
		return v, xsync.UpdateOp
	})
}

// Invalidate drops the cached workload of the given workers.
func (c *Cache) Invalidate(workerIDs ...string) {
	c.epoch.Add(1)
	for _, id := range workerIDs {
		if id == "" {
			continue
		}
		c.values.Delete(id)
		metrics.RecordWorkloadInvalidation()
	}
}

// Size returns the number of cached workers.
func (c *Cache) Size() int { return c.values.Size() }
