// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// MedicineListParams holds parameters for listing medicines
type MedicineListParams struct {
	Search     string
	CategoryID uuid.UUID
	SupplierID uuid.UUID
	Status     string
	Form       string
	Batch      string
	SortBy     string
	SortOrder  string
	Page       int
	PageSize   int
}

// MedicineListResult holds the result of listing medicines
type MedicineListResult struct {
	Items      []*domain.Medicine `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalCount int64              `json:"total_count"`
	TotalPages int                `json:"total_pages"`
}

// MedicineService defines the application service port for the medicine store.
// Status is always derived; callers can never set it.
type MedicineService interface {
	SaveMedicine(ctx context.Context, m *domain.Medicine) error
	SaveMedicines(ctx context.Context, ms []domain.Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Medicine, error)
	UpdateMedicine(ctx context.Context, id uuid.UUID, m *domain.Medicine) error
	DeleteMedicine(ctx context.Context, id uuid.UUID, permanent bool) error
	List(ctx context.Context, params MedicineListParams) (*MedicineListResult, error)
	GetByStatus(ctx context.Context, status domain.MedicineStatus) ([]*domain.Medicine, error)
	GetExpiring(ctx context.Context, days int) ([]*domain.Medicine, error)
	RefreshStatuses(ctx context.Context, now time.Time) (int64, error)
}

// CreateSaleInput is the already-validated boundary input for checkout
type CreateSaleInput struct {
	Items         []SaleLineInput
	Customer      domain.Customer
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	PaymentMethod string
	Notes         string
}

// SaleLineInput is one requested checkout line
type SaleLineInput struct {
	MedicineID uuid.UUID
	Quantity   int
	Price      decimal.Decimal
}

// SaleListParams holds parameters for listing sales
type SaleListParams struct {
	Customer      string
	PaymentStatus string
	StartDate     *time.Time
	EndDate       *time.Time
	SortOrder     string
	Page          int
	PageSize      int
}

// SaleListResult holds the result of listing sales
type SaleListResult struct {
	Items      []*domain.Sale `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}

// SaleService defines the application service port for checkout transactions
type SaleService interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*domain.Sale, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context, params SaleListParams) (*SaleListResult, error)
	UpdateMeta(ctx context.Context, id uuid.UUID, paymentStatus domain.PaymentStatus, notes string) (*domain.Sale, error)
	// DeleteSale removes a sale and restores each line's quantity to its
	// medicine; lines whose medicine no longer exists are skipped.
	DeleteSale(ctx context.Context, id uuid.UUID) error
}

// DispenseInput identifies one prescription line fulfillment
type DispenseInput struct {
	PrescriptionID uuid.UUID
	MedicineID     uuid.UUID
	Quantity       int
}

// PrescriptionListParams holds parameters for listing prescriptions
type PrescriptionListParams struct {
	Status    string
	Priority  string
	Customer  string
	Doctor    string
	SortOrder string
	Page      int
	PageSize  int
}

// PrescriptionListResult holds the result of listing prescriptions
type PrescriptionListResult struct {
	Items      []*domain.Prescription `json:"items"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalCount int64                  `json:"total_count"`
	TotalPages int                    `json:"total_pages"`
}

// PrescriptionService defines the application service port for prescriptions
type PrescriptionService interface {
	CreatePrescription(ctx context.Context, p *domain.Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Prescription, error)
	List(ctx context.Context, params PrescriptionListParams) (*PrescriptionListResult, error)
	UpdateMeta(ctx context.Context, p *domain.Prescription) error
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Prescription, error)
	Dispense(ctx context.Context, input DispenseInput) (*domain.Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
