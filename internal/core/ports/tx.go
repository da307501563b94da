// internal/core/ports/tx.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

// InventoryTx is the set of operations available inside one stock-mutating
// transaction. Medicine.quantity is the single contended resource; every
// check-then-decrement sequence must happen through one InventoryTx so that
// the precondition and the write are observed as a single atomic step by any
// concurrent transaction touching the same medicine.
type InventoryTx interface {
	// GetMedicineForUpdate reads a medicine row and locks it for the
	// duration of the transaction. Returns a NotFoundError if missing.
	GetMedicineForUpdate(ctx context.Context, id uuid.UUID) (*domain.Medicine, error)

	// UpdateMedicineStock writes a new quantity and derived status for a
	// medicine previously locked in this transaction.
	UpdateMedicineStock(ctx context.Context, id uuid.UUID, quantity int, status domain.MedicineStatus) error

	// InsertSale persists a sale together with its line items.
	InsertSale(ctx context.Context, sale *domain.Sale) error

	// GetSale reads a sale with its lines. Returns a NotFoundError if missing.
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)

	// DeleteSale removes a sale and its lines.
	DeleteSale(ctx context.Context, id uuid.UUID) error

	// InsertPrescription persists a prescription with its lines.
	InsertPrescription(ctx context.Context, p *domain.Prescription) error

	// GetPrescriptionForUpdate reads a prescription with its lines and locks
	// it for the duration of the transaction.
	GetPrescriptionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Prescription, error)

	// UpdatePrescriptionDispense writes updated line dispensed counts and the
	// re-derived prescription status.
	UpdatePrescriptionDispense(ctx context.Context, p *domain.Prescription) error

	// NextPrescriptionSeq reserves the next prescription number sequence value.
	NextPrescriptionSeq(ctx context.Context) (int64, error)
}

// TransactionManager runs a function within one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise, so a
// failed precondition can never leave a partial stock mutation behind.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx InventoryTx) error) error
}
