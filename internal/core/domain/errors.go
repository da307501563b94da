// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the inventory transaction core.
var (
	// ErrConcurrencyConflict is returned when the bounded retry budget for
	// conflicting stock mutations is exhausted.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")

	// ErrPrescriptionCancelled is returned when dispensing against a
	// cancelled prescription.
	ErrPrescriptionCancelled = errors.New("prescription is cancelled")
)

// ValidationError marks malformed input rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError identifies a missing referenced entity.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFoundError creates a not-found error for an entity reference
func NewNotFoundError(entity string, id uuid.UUID) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError is returned when a requested quantity exceeds the
// available stock of a medicine. Available carries the actual quantity so the
// caller can render actionable text.
type InsufficientStockError struct {
	MedicineID   uuid.UUID
	MedicineName string
	Requested    int
	Available    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.MedicineName, e.Requested, e.Available)
}

// ExceedsPrescribedError is returned when a dispense quantity exceeds the
// remaining prescribed amount on a prescription line.
type ExceedsPrescribedError struct {
	PrescriptionID uuid.UUID
	MedicineID     uuid.UUID
	Requested      int
	Remaining      int
}

func (e *ExceedsPrescribedError) Error() string {
	return fmt.Sprintf("cannot dispense more than remaining quantity: requested %d, remaining %d",
		e.Requested, e.Remaining)
}

// StorageError wraps unexpected failures from the backing store. These are
// never retried beyond the bounded conflict retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// WrapStorage wraps err as a StorageError unless it is nil or already one of
// the typed domain failures.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		is *InsufficientStockError
		ep *ExceedsPrescribedError
		se *StorageError
	)
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is) ||
		errors.As(err, &ep) || errors.As(err, &se) ||
		errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, ErrPrescriptionCancelled) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
