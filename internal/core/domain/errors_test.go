package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

func TestInsufficientStockError_MessageCarriesAvailable(t *testing.T) {
	err := &domain.InsufficientStockError{
		MedicineID:   uuid.New(),
		MedicineName: "Ibuprofen 400mg",
		Requested:    12,
		Available:    4,
	}

	assert.Contains(t, err.Error(), "available 4")
	assert.Contains(t, err.Error(), "Ibuprofen 400mg")
}

func TestExceedsPrescribedError_MessageCarriesRemaining(t *testing.T) {
	err := &domain.ExceedsPrescribedError{
		Requested: 4,
		Remaining: 3,
	}

	assert.Contains(t, err.Error(), "remaining 3")
}

func TestWrapStorage(t *testing.T) {
	t.Run("nil_passes_through", func(t *testing.T) {
		assert.NoError(t, domain.WrapStorage("save", nil))
	})

	t.Run("plain_errors_become_storage_errors", func(t *testing.T) {
		base := errors.New("connection reset")
		err := domain.WrapStorage("save medicine", base)

		var se *domain.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "save medicine", se.Op)
		assert.ErrorIs(t, err, base)
	})

	t.Run("typed_domain_failures_are_not_rewrapped", func(t *testing.T) {
		typed := []error{
			domain.NewValidationError("quantity", "must be positive"),
			domain.NewNotFoundError("medicine", uuid.New()),
			&domain.InsufficientStockError{Requested: 2, Available: 1},
			&domain.ExceedsPrescribedError{Requested: 2, Remaining: 1},
			domain.ErrConcurrencyConflict,
			fmt.Errorf("dispense: %w", domain.ErrPrescriptionCancelled),
		}

		for _, err := range typed {
			got := domain.WrapStorage("op", err)
			var se *domain.StorageError
			assert.False(t, errors.As(got, &se), "unexpected StorageError wrap for %v", err)
			assert.Equal(t, err, got)
		}
	})
}
