// Package workload derives each worker's load from their open task assignments.
package workload

import (
	"math"

	"github.com/okian/taskmatch/internal/domain/model"
)

// Constants for workload calculation.
const (
	DefaultWeeklyCapacityHours = 40.0
	maxPercent                 = 100.0
)

// Calculator converts open task hours into a percentage of weekly capacity.
type Calculator struct {
	capacityHours float64
}

// New creates a Calculator with the default 40h capacity unless overridden.
func New(opts ...Option) *Calculator {
	c := &Calculator{capacityHours: DefaultWeeklyCapacityHours}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CapacityHours returns the weekly capacity in use.
func (c *Calculator) CapacityHours() float64 { return c.capacityHours }

// Compute returns workerID's workload in [0,100]. Only Pending and InProgress
// tasks count; negative hours count as zero.
func (c *Calculator) Compute(workerID string, tasks []model.Task) float64 {
	if workerID == "" {
		return 0
	}
	hours := 0
	for i := range tasks {
		t := &tasks[i]
		if t.AssignedTo == workerID && t.Status.Open() && t.EstimatedHours > 0 {
			hours += t.EstimatedHours
		}
	}
	return c.percent(hours)
}

// Annotate returns a copy of workers with WorkloadPercent filled from tasks in one pass.
func (c *Calculator) Annotate(workers []model.Worker, tasks []model.Task) []model.Worker {
	hours := HoursByWorker(tasks)
	out := make([]model.Worker, len(workers))
	for i, w := range workers {
		w.WorkloadPercent = c.percent(hours[w.ID])
		out[i] = w
	}
	return out
}

// HoursByWorker sums open hours per assignee.
func HoursByWorker(tasks []model.Task) map[string]int {
	hours := make(map[string]int)
	for i := range tasks {
		t := &tasks[i]
		if !t.Assigned() || !t.Status.Open() || t.EstimatedHours <= 0 {
			continue
		}
		hours[t.AssignedTo] += t.EstimatedHours
	}
	return hours
}

func (c *Calculator) percent(hours int) float64 {
	if hours <= 0 || c.capacityHours <= 0 {
		return 0
	}
	p := float64(hours) / c.capacityHours * maxPercent
	return math.Max(0, math.Min(maxPercent, p))
}

// Compute uses the default capacity.
func Compute(workerID string, tasks []model.Task) float64 {
	return defaultCalculator.Compute(workerID, tasks)
}

var defaultCalculator = New()
