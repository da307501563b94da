// internal/core/domain/prescription.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PrescriptionStatus represents the overall dispensing state of a prescription
type PrescriptionStatus string

// Prescription status constants
const (
	PrescriptionPending            PrescriptionStatus = "pending"
	PrescriptionPartiallyDispensed PrescriptionStatus = "partially-dispensed"
	PrescriptionDispensed          PrescriptionStatus = "dispensed"
	PrescriptionCancelled          PrescriptionStatus = "cancelled"
)

// PrescriptionPriority represents handling priority
type PrescriptionPriority string

// Priority constants
const (
	PriorityLow    PrescriptionPriority = "low"
	PriorityNormal PrescriptionPriority = "normal"
	PriorityHigh   PrescriptionPriority = "high"
	PriorityUrgent PrescriptionPriority = "urgent"
)

// Doctor holds the prescribing doctor's details
type Doctor struct {
	Name           string `json:"name"`
	License        string `json:"license"`
	Specialization string `json:"specialization,omitempty"`
	Hospital       string `json:"hospital,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
}

// PrescriptionItem is one prescribed medicine line. Dispensed tracks how much
// of the prescribed quantity has been fulfilled so far; the invariant
// 0 <= Dispensed <= Quantity holds at all times.
type PrescriptionItem struct {
	MedicineID   uuid.UUID `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	Dosage       string    `json:"dosage"`
	Quantity     int       `json:"quantity"`
	Dispensed    int       `json:"dispensed"`
	Instructions string    `json:"instructions"`
	Frequency    string    `json:"frequency,omitempty"`
	Duration     string    `json:"duration,omitempty"`
}

// Remaining returns the undelivered prescribed amount on this line.
func (i *PrescriptionItem) Remaining() int {
	return i.Quantity - i.Dispensed
}

// Prescription represents one doctor order for a customer
type Prescription struct {
	ID                 uuid.UUID            `json:"id"`
	PrescriptionNumber string               `json:"prescription_number"`
	Customer           Customer             `json:"customer"`
	Doctor             Doctor               `json:"doctor"`
	Items              []PrescriptionItem   `json:"items"`
	Diagnosis          string               `json:"diagnosis"`
	Notes              string               `json:"notes,omitempty"`
	Status             PrescriptionStatus   `json:"status"`
	Priority           PrescriptionPriority `json:"priority"`
	ValidUntil         time.Time            `json:"valid_until"`
	DispensedAt        *time.Time           `json:"dispensed_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// Validate performs domain validation on the prescription
func (p *Prescription) Validate() error {
	if p.Customer.Name == "" {
		return NewValidationError("customer.name", "customer name is required")
	}
	if p.Customer.Phone == "" {
		return NewValidationError("customer.phone", "customer phone is required")
	}
	if p.Doctor.Name == "" {
		return NewValidationError("doctor.name", "doctor name is required")
	}
	if p.Doctor.License == "" {
		return NewValidationError("doctor.license", "doctor license is required")
	}
	if p.Diagnosis == "" {
		return NewValidationError("diagnosis", "diagnosis is required")
	}
	if len(p.Items) == 0 {
		return NewValidationError("items", "at least one medicine is required")
	}
	for i := range p.Items {
		if err := p.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if p.ValidUntil.IsZero() {
		return NewValidationError("valid_until", "validity date is required")
	}
	if p.Priority == "" {
		p.Priority = PriorityNormal
	}
	return nil
}

// Validate performs domain validation on a prescription line
func (i *PrescriptionItem) Validate() error {
	if i.MedicineID == uuid.Nil {
		return NewValidationError("medicine_id", "medicine reference is required")
	}
	if i.Dosage == "" {
		return NewValidationError("dosage", "dosage is required")
	}
	if i.Quantity < 1 {
		return NewValidationError("quantity", "quantity must be at least 1")
	}
	if i.Dispensed < 0 || i.Dispensed > i.Quantity {
		return NewValidationError("dispensed", "dispensed must be between 0 and the prescribed quantity")
	}
	if i.Instructions == "" {
		return NewValidationError("instructions", "instructions are required")
	}
	return nil
}

// ItemByMedicine returns the line for a medicine ID, or nil if the
// prescription has no line for it.
func (p *Prescription) ItemByMedicine(medicineID uuid.UUID) *PrescriptionItem {
	for i := range p.Items {
		if p.Items[i].MedicineID == medicineID {
			return &p.Items[i]
		}
	}
	return nil
}

// DeriveStatus recomputes the prescription-level status from the lines:
// pending when nothing dispensed, dispensed when everything dispensed,
// partially-dispensed otherwise. Cancelled prescriptions are never re-derived.
func (p *Prescription) DeriveStatus(now time.Time) {
	if p.Status == PrescriptionCancelled {
		return
	}

	var prescribed, dispensed int
	for i := range p.Items {
		prescribed += p.Items[i].Quantity
		dispensed += p.Items[i].Dispensed
	}

	switch {
	case dispensed == 0:
		p.Status = PrescriptionPending
	case dispensed == prescribed:
		p.Status = PrescriptionDispensed
		if p.DispensedAt == nil {
			p.DispensedAt = &now
		}
	default:
		p.Status = PrescriptionPartiallyDispensed
	}
}

// PrepareForStorage prepares the prescription for database storage.
// New prescriptions start with every line at dispensed=0.
func (p *Prescription) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	now := time.Now()
	p.DeriveStatus(now)

	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// TotalPrescribed returns the total prescribed quantity across lines.
func (p *Prescription) TotalPrescribed() int {
	var n int
	for i := range p.Items {
		n += p.Items[i].Quantity
	}
	return n
}

// TotalDispensed returns the total dispensed quantity across lines.
func (p *Prescription) TotalDispensed() int {
	var n int
	for i := range p.Items {
		n += p.Items[i].Dispensed
	}
	return n
}

// FormatPrescriptionNumber renders the sequential RX number, e.g. RX000042.
func FormatPrescriptionNumber(seq int64) string {
	return fmt.Sprintf("RX%06d", seq)
}
