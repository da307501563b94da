// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents accepted payment methods
type PaymentMethod string

// Payment method constants
const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "netbanking"
	PaymentCheque     PaymentMethod = "cheque"
)

// PaymentStatus represents the state of a sale's payment
type PaymentStatus string

// Payment status constants
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Customer holds buyer contact details embedded in sales and prescriptions
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// SaleItem is one (medicine, quantity, price) line within a checkout.
// MedicineName and Batch are snapshots taken at sale time; the medicine row
// itself is referenced by ID only.
type SaleItem struct {
	MedicineID   uuid.UUID       `json:"medicine_id"`
	MedicineName string          `json:"medicine_name"`
	Batch        string          `json:"batch"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Total        decimal.Decimal `json:"total"`
}

// Sale represents one completed or pending checkout
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	Items         []SaleItem      `json:"items"`
	Customer      Customer        `json:"customer"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the sale
func (s *Sale) Validate() error {
	if len(s.Items) == 0 {
		return NewValidationError("items", "at least one item is required")
	}
	for i := range s.Items {
		if err := s.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if s.Customer.Name == "" {
		return NewValidationError("customer.name", "customer name is required")
	}
	if s.Discount.IsNegative() {
		return NewValidationError("discount", "discount cannot be negative")
	}
	if s.Tax.IsNegative() {
		return NewValidationError("tax", "tax cannot be negative")
	}
	if s.PaymentMethod == "" {
		s.PaymentMethod = PaymentCash
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = PaymentCompleted
	}
	return nil
}

// Validate performs domain validation on a sale line
func (i *SaleItem) Validate() error {
	if i.MedicineID == uuid.Nil {
		return NewValidationError("medicine_id", "medicine reference is required")
	}
	if i.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1")
	}
	if i.Price.IsNegative() {
		return NewValidationError("price", "price cannot be negative")
	}
	return nil
}

// ComputeTotals sets line totals, subtotal and total:
// line.total = quantity x price, subtotal = sum of line totals,
// total = subtotal - discount + tax.
func (s *Sale) ComputeTotals() {
	subtotal := decimal.Zero
	for i := range s.Items {
		s.Items[i].Total = s.Items[i].Price.Mul(decimal.NewFromInt(int64(s.Items[i].Quantity)))
		subtotal = subtotal.Add(s.Items[i].Total)
	}
	s.Subtotal = subtotal
	s.Total = subtotal.Sub(s.Discount).Add(s.Tax)
}

// PrepareForStorage prepares the sale for database storage
func (s *Sale) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	s.ComputeTotals()

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// TotalItems returns the total quantity across all lines.
func (s *Sale) TotalItems() int {
	var n int
	for i := range s.Items {
		n += s.Items[i].Quantity
	}
	return n
}
