// internal/core/ports/medicine_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// MedicineQueryParams holds filters for listing medicines
type MedicineQueryParams struct {
	Search     string
	CategoryID uuid.UUID
	SupplierID uuid.UUID
	Status     string
	Form       string
	Batch      string
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

// MedicineRepository defines the persistence port for medicines.
// This interface is implemented by the database adapter.
type MedicineRepository interface {
	Save(ctx context.Context, m *domain.Medicine) error
	SaveBatch(ctx context.Context, ms []domain.Medicine) error
	Update(ctx context.Context, m *domain.Medicine) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Medicine, error)
	FindAll(ctx context.Context, params MedicineQueryParams) ([]*domain.Medicine, int64, error)
	FindByStatus(ctx context.Context, status domain.MedicineStatus) ([]*domain.Medicine, error)
	FindExpiring(ctx context.Context, within time.Duration) ([]*domain.Medicine, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.MedicineStatus]int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// RefreshStatuses re-derives the stored status of every live medicine at
	// the given instant and returns how many rows changed. Used by the
	// periodic sweep that handles pure time-passage transitions.
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
}
