// Package types contains the read shapes shared by the service and the HTTP API.
package types

import "github.com/okian/taskmatch/internal/domain/ranking"

// Entry is one row of a candidate ranking.
type Entry struct {
	Rank       int     `json:"rank"`
	WorkerID   string  `json:"worker_id"`
	Name       string  `json:"name"`
	Department string  `json:"department"`
	Score      float64 `json:"score"`
	Workload   float64 `json:"workload"`
	Skill      float64 `json:"skill"`
}

// Entries flattens ranked candidates into entries, keeping order.
func Entries(candidates []ranking.Candidate) []Entry {
	out := make([]Entry, len(candidates))
	for i, c := range candidates {
		out[i] = Entry{
			Rank:       c.Rank,
			WorkerID:   c.Worker.ID,
			Name:       c.Worker.Name,
			Department: c.Worker.Department,
			Score:      c.Score,
			Workload:   c.Worker.WorkloadPercent,
			Skill:      c.Worker.SkillLevel,
		}
	}
	return out
}

// Stats summarises the service for monitoring.
type Stats struct {
	Started         bool           `json:"started"`
	Store           string         `json:"store,omitempty"`
	Publisher       string         `json:"publisher,omitempty"`
	Workers         int            `json:"workers"`
	Tasks           int            `json:"tasks"`
	TasksByStatus   map[string]int `json:"tasks_by_status"`
	QueueLength     int            `json:"queue_length"`
	QueueCapacity   int            `json:"queue_capacity"`
	NotifyWorkers   int            `json:"notify_workers"`
	IdempotencyKeys int64          `json:"idempotency_keys"`
	CachedWorkloads int            `json:"cached_workloads"`
}
