// internal/core/ports/reference_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// CategoryRepository defines the persistence port for categories
type CategoryRepository interface {
	Save(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	FindAll(ctx context.Context) ([]*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SupplierRepository defines the persistence port for suppliers
type SupplierRepository interface {
	Save(ctx context.Context, s *domain.Supplier) error
	Update(ctx context.Context, s *domain.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error)
	FindAll(ctx context.Context) ([]*domain.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotificationRepository defines the persistence port for stock alerts
type NotificationRepository interface {
	Save(ctx context.Context, n *domain.Notification) error
	FindUnread(ctx context.Context, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
