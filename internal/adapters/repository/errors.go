package repository

import (
	"errors"
	"fmt"

	"github.com/okian/taskmatch/internal/domain/model"
)

// Sentinel kinds for record store errors.
var (
	ErrTaskNotFound   = fmt.Errorf("task %w", model.ErrNotFound)
	ErrWorkerNotFound = fmt.Errorf("worker %w", model.ErrNotFound)
	ErrConflict       = model.ErrConflict
	ErrStoreClosed    = errors.New("store closed")
)

func taskNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

func workerNotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrWorkerNotFound, id)
}
