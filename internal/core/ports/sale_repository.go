// internal/core/ports/sale_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// SaleQueryParams holds filters for listing sales
type SaleQueryParams struct {
	Customer      string
	PaymentStatus string
	StartDate     *time.Time
	EndDate       *time.Time
	SortOrder     string
	Limit         int
	Offset        int
}

// SaleRepository defines the read/metadata persistence port for sales.
// Sale creation and deletion mutate medicine stock and therefore run through
// the InventoryTx transaction port, not through this interface.
type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	FindAll(ctx context.Context, params SaleQueryParams) ([]*domain.Sale, int64, error)
	UpdateMeta(ctx context.Context, id uuid.UUID, paymentStatus domain.PaymentStatus, notes string) (*domain.Sale, error)
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
