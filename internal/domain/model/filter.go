package model

import (
	"strings"
)

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	// Query matches title or description, ignoring case.
	Query string
	// Department matches the assignee's department exactly.
	Department string
	Status     Status
}

// Match reports whether t passes the filter. workers resolves assignees for the
// department check; unassigned tasks never match a department.
func (f TaskFilter) Match(t Task, workers map[string]Worker) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.Department != "" {
		w, ok := workers[t.AssignedTo]
		if !t.Assigned() || !ok || w.Department != f.Department {
			return false
		}
	}
	return true
}

// Apply returns the tasks that match, preserving order.
func (f TaskFilter) Apply(tasks []Task, workers []Worker) []Task {
	byID := make(map[string]Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, byID) {
			out = append(out, t)
		}
	}
	return out
}
