// Package model contains the allocation domain types passed between layers.
package model

import "time"

// Worker is an assignable person. WorkloadPercent is derived from open tasks
// and is never taken from client input.
type Worker struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	Department      string  `json:"department" yaml:"department"`
	Position        string  `json:"position,omitempty" yaml:"position,omitempty"`
	Email           string  `json:"email,omitempty" yaml:"email,omitempty"`
	SkillLevel      float64 `json:"skill_level" yaml:"skill_level"`
	WorkloadPercent float64 `json:"workload_percent" yaml:"-"`
}

// Task is a unit of work to be assigned.
type Task struct {
	ID             string    `json:"id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Description    string    `json:"description" yaml:"description"`
	Priority       Priority  `json:"priority" yaml:"priority"`
	Status         Status    `json:"status" yaml:"status"`
	AssignedTo     string    `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	EstimatedHours int       `json:"estimated_hours" yaml:"estimated_hours"`
	DueDate        Date      `json:"due_date" yaml:"due_date"`
	CreatedDate    time.Time `json:"created_date" yaml:"created_date"`
}

// Assigned reports whether the task has an assignee.
func (t Task) Assigned() bool { return t.AssignedTo != "" }

// ValidateWorker checks the stored attributes of a worker record.
func ValidateWorker(w Worker) error {
	if w.ID == "" {
		return NewFieldError("id", "is required")
	}
	if w.Name == "" {
		return NewFieldError("name", "is required")
	}
	if w.SkillLevel < 0 || w.SkillLevel > 100 {
		return NewFieldError("skill_level", "must be between 0 and 100")
	}
	return nil
}

// TaskChange describes a committed task mutation.
type TaskChange struct {
	Before Task
	After  Task
}
