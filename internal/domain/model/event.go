package model

import "time"

// EventType names an assignment lifecycle notification.
type EventType string

const (
	EventTaskAssigned  EventType = "task.assigned"
	EventTaskCompleted EventType = "task.completed"
	EventTaskCancelled EventType = "task.cancelled"
)

// TaskEvent is published after a committed assignment or status change.
type TaskEvent struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	TaskID           string    `json:"task_id"`
	WorkerID         string    `json:"worker_id,omitempty"`
	PreviousWorkerID string    `json:"previous_worker_id,omitempty"`
	Status           Status    `json:"status"`
	At               time.Time `json:"at"`
}

// EventTypeFor maps a target status to its notification type.
func EventTypeFor(s Status) EventType {
	switch s {
	case StatusCompleted:
		return EventTaskCompleted
	case StatusCancelled:
		return EventTaskCancelled
	default:
		return EventTaskAssigned
	}
}
