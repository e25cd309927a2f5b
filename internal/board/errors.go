package board

import (
	"errors"
	"fmt"

	"github.com/Makepad-fr/tada-board/internal/api"
)

var (
	// ErrValidation is returned when a todo is submitted without a title.
	ErrValidation = errors.New("title required")
	// ErrBusy is returned when a load or submit is already running.
	ErrBusy = errors.New("another request is still running")
	// ErrNotFound is returned for ids that are not in the collection.
	ErrNotFound = errors.New("todo not found")
	// ErrCommitted is returned when a pending mutation is committed twice.
	ErrCommitted = errors.New("mutation already committed")
)

// LoadError means the list request failed. The collection is unchanged.
type LoadError struct {
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("could not load todos: backend responded with status %d", e.Status)
	}
	return "could not load todos: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError means a create request failed. Nothing was added.
type SaveError struct {
	Status int
	Err    error
}

func (e *SaveError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("could not save todo: backend responded with status %d", e.Status)
	}
	return "could not save todo: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error { return e.Err }

// UpdateError means an update was rejected and the item was rolled back.
type UpdateError struct {
	ID     int64
	Status int
	Err    error
}

func (e *UpdateError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("update of todo %d failed (%d)", e.ID, e.Status)
	}
	return fmt.Sprintf("update of todo %d failed: %v", e.ID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// DeleteError means a delete was rejected and the collection was restored.
type DeleteError struct {
	ID     int64
	Status int
	Err    error
}

func (e *DeleteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("delete of todo %d failed (%d)", e.ID, e.Status)
	}
	return fmt.Sprintf("delete of todo %d failed: %v", e.ID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

func statusOf(err error) int { return api.StatusCode(err) }
