package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer of the allocation engine.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConflict reports a write that lost a race with another writer.
	ErrConflict = errors.New("concurrent modification")
)

// FieldError reports which input field failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *FieldError) Unwrap() error { return ErrInvalidInput }

// NewFieldError builds a FieldError for the named field.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// TransitionError reports a status change the lifecycle does not allow.
type TransitionError struct {
	TaskID string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: task %s cannot move from %s to %s", e.TaskID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
