// internal/core/domain/medicine.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MedicineStatus represents the derived stock/expiry status of a medicine batch
type MedicineStatus string

// Status constants
const (
	StatusInStock      MedicineStatus = "in-stock"
	StatusLowStock     MedicineStatus = "low-stock"
	StatusExpiringSoon MedicineStatus = "expiring-soon"
	StatusExpired      MedicineStatus = "expired"
)

// MedicineForm represents dosage forms
type MedicineForm string

// Form constants
const (
	FormTablet    MedicineForm = "tablet"
	FormCapsule   MedicineForm = "capsule"
	FormSyrup     MedicineForm = "syrup"
	FormInjection MedicineForm = "injection"
	FormCream     MedicineForm = "cream"
	FormDrops     MedicineForm = "drops"
	FormInhaler   MedicineForm = "inhaler"
	FormOther     MedicineForm = "other"
)

// ExpiryWindow is the horizon within which a batch is flagged expiring-soon.
const ExpiryWindow = 30 * 24 * time.Hour

// Medicine represents one stocked batch of a drug
type Medicine struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	CategoryID           uuid.UUID       `json:"category_id"`
	SupplierID           uuid.UUID       `json:"supplier_id"`
	Batch                string          `json:"batch"`
	ExpiryDate           time.Time       `json:"expiry_date"`
	Quantity             int             `json:"quantity"`
	Price                decimal.Decimal `json:"price"`
	MRP                  decimal.Decimal `json:"mrp"`
	ParLevel             int             `json:"par_level"`
	Status               MedicineStatus  `json:"status"`
	Description          string          `json:"description,omitempty"`
	Manufacturer         string          `json:"manufacturer,omitempty"`
	Dosage               string          `json:"dosage,omitempty"`
	Form                 MedicineForm    `json:"form"`
	PrescriptionRequired bool            `json:"prescription_required"`
	Barcode              string          `json:"barcode,omitempty"`
	Tags                 []string        `json:"tags,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            *time.Time      `json:"deleted_at,omitempty"`
}

// DeriveStatus maps (quantity, parLevel, expiryDate, now) to a MedicineStatus.
// Precedence is fixed: zero stock wins over everything, then hard expiry,
// then the expiring-soon window, then the par-level threshold (inclusive).
// Pure function; callers must recompute on every quantity or expiry change.
func DeriveStatus(quantity, parLevel int, expiryDate, now time.Time) MedicineStatus {
	switch {
	case quantity == 0:
		return StatusExpired
	case !expiryDate.After(now):
		return StatusExpired
	case !expiryDate.After(now.Add(ExpiryWindow)):
		return StatusExpiringSoon
	case quantity <= parLevel:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Validate performs domain validation on the medicine
func (m *Medicine) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Batch == "" {
		return fmt.Errorf("batch is required")
	}
	if m.CategoryID == uuid.Nil {
		return fmt.Errorf("category_id is required")
	}
	if m.SupplierID == uuid.Nil {
		return fmt.Errorf("supplier_id is required")
	}
	if m.ExpiryDate.IsZero() {
		return fmt.Errorf("expiry_date is required")
	}
	if m.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	if m.ParLevel < 0 {
		return fmt.Errorf("par_level cannot be negative")
	}
	if m.Price.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if m.MRP.IsNegative() {
		return fmt.Errorf("mrp cannot be negative")
	}
	if m.Form == "" {
		m.Form = FormTablet
	}
	return nil
}

// RefreshStatus recomputes the derived status from the current quantity,
// par level and expiry date. The status field is never trusted from callers.
func (m *Medicine) RefreshStatus(now time.Time) {
	m.Status = DeriveStatus(m.Quantity, m.ParLevel, m.ExpiryDate, now)
}

// PrepareForStorage prepares the medicine for database storage
func (m *Medicine) PrepareForStorage() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	now := time.Now()
	m.RefreshStatus(now)

	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// DaysUntilExpiry returns whole days until the batch expires, negative if past.
func (m *Medicine) DaysUntilExpiry(now time.Time) int {
	return int(m.ExpiryDate.Sub(now).Hours() / 24)
}

// ProfitMargin returns the margin percentage between MRP and cost price.
func (m *Medicine) ProfitMargin() decimal.Decimal {
	if m.Price.IsZero() {
		return decimal.Zero
	}
	return m.MRP.Sub(m.Price).Div(m.Price).Mul(decimal.NewFromInt(100))
}
