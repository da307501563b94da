// internal/core/ports/prescription_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// PrescriptionQueryParams holds filters for listing prescriptions
type PrescriptionQueryParams struct {
	Status    string
	Priority  string
	Customer  string
	Doctor    string
	SortOrder string
	Limit     int
	Offset    int
}

// PrescriptionRepository defines the read/metadata persistence port for
// prescriptions. Dispensing mutates medicine stock and therefore runs through
// the InventoryTx transaction port, not through this interface.
type PrescriptionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Prescription, error)
	FindAll(ctx context.Context, params PrescriptionQueryParams) ([]*domain.Prescription, int64, error)
	UpdateMeta(ctx context.Context, p *domain.Prescription) error
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[domain.PrescriptionStatus]int64, error)
}
