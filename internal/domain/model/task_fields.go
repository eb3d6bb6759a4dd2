package model

import (
	"strings"
)

// Estimated hours accepted for a single task.
const (
	MinEstimatedHours     = 1
	MaxEstimatedHours     = 100
	DefaultEstimatedHours = 8
)

// TaskInput is the unvalidated form of the editable task fields.
type TaskInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	DueDate        string `json:"due_date"`
	EstimatedHours *int   `json:"estimated_hours,omitempty"`
}

// TaskFields holds the validated editable fields of a task.
type TaskFields struct {
	Title          string
	Description    string
	Priority       Priority
	DueDate        Date
	EstimatedHours int
}

// Validate checks the input and returns the first failing field as a *FieldError.
func (in TaskInput) Validate() (TaskFields, error) {
	var f TaskFields

	f.Title = strings.TrimSpace(in.Title)
	if f.Title == "" {
		return TaskFields{}, NewFieldError("title", "is required")
	}
	f.Description = strings.TrimSpace(in.Description)
	if f.Description == "" {
		return TaskFields{}, NewFieldError("description", "is required")
	}

	p, err := ParsePriority(in.Priority)
	if err != nil {
		return TaskFields{}, err
	}
	f.Priority = p

	d, err := ParseDate(strings.TrimSpace(in.DueDate))
	if err != nil {
		return TaskFields{}, NewFieldError("due_date", "must be a valid date (YYYY-MM-DD)")
	}
	f.DueDate = d

	f.EstimatedHours = DefaultEstimatedHours
	if in.EstimatedHours != nil {
		h := *in.EstimatedHours
		if h < MinEstimatedHours || h > MaxEstimatedHours {
			return TaskFields{}, NewFieldError("estimated_hours", "must be between 1 and 100")
		}
		f.EstimatedHours = h
	}
	return f, nil
}

// Apply copies the editable fields onto t, leaving status, assignee and identity untouched.
func (f TaskFields) Apply(t Task) Task {
	t.Title = f.Title
	t.Description = f.Description
	t.Priority = f.Priority
	t.DueDate = f.DueDate
	t.EstimatedHours = f.EstimatedHours
	return t
}
