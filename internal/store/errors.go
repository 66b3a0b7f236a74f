package store

import (
	"fmt"

	"github.com/opencad/dispatchd/internal/model"
)

// ValidationError reports a missing or malformed field. Nothing is
// persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// ConflictError reports a uniqueness violation or an assignment that
// would break the at-most-one-active-link invariant.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// NotFoundError reports an operation targeting a nonexistent id.
type NotFoundError struct {
	Kind model.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidTransitionError reports a status change rejected by the state
// machine. The store is not mutated.
type InvalidTransitionError struct {
	Kind model.Kind
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s status %s -> %s is not allowed", e.Kind, e.From, e.To)
}

// StorageUnavailableError wraps a failure of the storage backend
// itself. The mutation is rejected and not retried by the store.
type StorageUnavailableError struct {
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return "storage unavailable: " + e.Err.Error()
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

func validationErr(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func conflictErr(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}
