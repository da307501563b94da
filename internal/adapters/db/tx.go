// internal/adapters/db/tx.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// txManager implements ports.TransactionManager over the pgx pool
type txManager struct {
	db     *Database
	logger *slog.Logger
}

// NewTxManager creates a transaction manager for stock-mutating operations
func NewTxManager(db *Database, logger *slog.Logger) ports.TransactionManager {
	return &txManager{
		db:     db,
		logger: logger.With(slog.String("component", "tx_manager")),
	}
}

var _ ports.TransactionManager = (*txManager)(nil)

// WithinTx runs fn inside one database transaction. Commit on nil, rollback
// on any error, so a failed precondition never leaves a partial mutation.
func (t *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.InventoryTx) error) error {
	return t.db.Transaction(ctx, func(pgTx pgx.Tx) error {
		return fn(ctx, &inventoryTx{tx: pgTx})
	})
}

// inventoryTx implements ports.InventoryTx over one open pgx transaction
type inventoryTx struct {
	tx pgx.Tx
}

var _ ports.InventoryTx = (*inventoryTx)(nil)

// GetMedicineForUpdate reads and row-locks one medicine for the remainder of
// the transaction. Concurrent transactions block here until commit/rollback,
// which is what makes check-then-decrement safe.
func (t *inventoryTx) GetMedicineForUpdate(ctx context.Context, id uuid.UUID) (*domain.Medicine, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM medicines
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`, strings.Join(medicineColumns, ", "))

	m, err := scanMedicine(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NewNotFoundError("medicine", id)
		}
		return nil, fmt.Errorf("failed to lock medicine: %w", err)
	}

	return m, nil
}

// UpdateMedicineStock writes a new quantity and derived status for a medicine
// locked earlier in this transaction.
func (t *inventoryTx) UpdateMedicineStock(ctx context.Context, id uuid.UUID, quantity int, status domain.MedicineStatus) error {
	query := `
		UPDATE medicines
		SET quantity = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := t.tx.Exec(ctx, query, id, quantity, status)
	if err != nil {
		return fmt.Errorf("failed to update medicine stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("medicine", id)
	}

	return nil
}

// InsertSale persists a sale and its lines
func (t *inventoryTx) InsertSale(ctx context.Context, sale *domain.Sale) error {
	saleQuery := `
		INSERT INTO sales (
			id, customer_name, customer_phone, customer_email, customer_address,
			subtotal, discount, tax, total,
			payment_method, payment_status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := t.tx.Exec(ctx, saleQuery,
		sale.ID, sale.Customer.Name, sale.Customer.Phone, sale.Customer.Email, sale.Customer.Address,
		sale.Subtotal, sale.Discount, sale.Tax, sale.Total,
		sale.PaymentMethod, sale.PaymentStatus, sale.Notes, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (
			sale_id, medicine_id, medicine_name, batch, quantity, price, total
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	batch := &pgx.Batch{}
	for i := range sale.Items {
		batch.Queue(itemQuery,
			sale.ID, sale.Items[i].MedicineID, sale.Items[i].MedicineName,
			sale.Items[i].Batch, sale.Items[i].Quantity, sale.Items[i].Price, sale.Items[i].Total,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()

	for range sale.Items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	return nil
}

// GetSale reads a sale with its lines
func (t *inventoryTx) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	query := `
		SELECT id, customer_name, customer_phone, customer_email, customer_address,
		       subtotal, discount, tax, total,
		       payment_method, payment_status, notes, created_at, updated_at
		FROM sales WHERE id = $1`

	sale := &domain.Sale{}
	var phone, email, address, notes sql.NullString
	err := t.tx.QueryRow(ctx, query, id).Scan(
		&sale.ID, &sale.Customer.Name, &phone, &email, &address,
		&sale.Subtotal, &sale.Discount, &sale.Tax, &sale.Total,
		&sale.PaymentMethod, &sale.PaymentStatus, &notes, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NewNotFoundError("sale", id)
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	sale.Customer.Phone = phone.String
	sale.Customer.Email = email.String
	sale.Customer.Address = address.String
	sale.Notes = notes.String

	itemQuery := `
		SELECT medicine_id, medicine_name, batch, quantity, price, total
		FROM sale_items WHERE sale_id = $1
		ORDER BY medicine_name`

	rows, err := t.tx.Query(ctx, itemQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		var itemBatch sql.NullString
		if err := rows.Scan(&item.MedicineID, &item.MedicineName, &itemBatch,
			&item.Quantity, &item.Price, &item.Total); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		item.Batch = itemBatch.String
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sale items: %w", err)
	}

	return sale, nil
}

// DeleteSale removes a sale; its lines cascade
func (t *inventoryTx) DeleteSale(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("sale", id)
	}
	return nil
}

// InsertPrescription persists a prescription and its lines
func (t *inventoryTx) InsertPrescription(ctx context.Context, p *domain.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, prescription_number,
			customer_name, customer_phone, customer_email, customer_address,
			doctor_name, doctor_license, doctor_specialization, doctor_hospital,
			doctor_phone, doctor_email,
			diagnosis, notes, status, priority, valid_until, dispensed_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`

	_, err := t.tx.Exec(ctx, query,
		p.ID, p.PrescriptionNumber,
		p.Customer.Name, p.Customer.Phone, p.Customer.Email, p.Customer.Address,
		p.Doctor.Name, p.Doctor.License, p.Doctor.Specialization, p.Doctor.Hospital,
		p.Doctor.Phone, p.Doctor.Email,
		p.Diagnosis, p.Notes, p.Status, p.Priority, p.ValidUntil, p.DispensedAt,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prescription: %w", err)
	}

	itemQuery := `
		INSERT INTO prescription_items (
			prescription_id, medicine_id, medicine_name, dosage,
			quantity, dispensed, instructions, frequency, duration
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	batch := &pgx.Batch{}
	for i := range p.Items {
		batch.Queue(itemQuery,
			p.ID, p.Items[i].MedicineID, p.Items[i].MedicineName, p.Items[i].Dosage,
			p.Items[i].Quantity, p.Items[i].Dispensed, p.Items[i].Instructions,
			p.Items[i].Frequency, p.Items[i].Duration,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()

	for range p.Items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert prescription item: %w", err)
		}
	}

	return nil
}

// GetPrescriptionForUpdate reads a prescription with its lines and locks the
// prescription row for the remainder of the transaction.
func (t *inventoryTx) GetPrescriptionForUpdate(ctx context.Context, id uuid.UUID) (*domain.Prescription, error) {
	query := `
		SELECT id, prescription_number,
		       customer_name, customer_phone, customer_email, customer_address,
		       doctor_name, doctor_license, doctor_specialization, doctor_hospital,
		       doctor_phone, doctor_email,
		       diagnosis, notes, status, priority, valid_until, dispensed_at,
		       created_at, updated_at
		FROM prescriptions
		WHERE id = $1
		FOR UPDATE`

	p, err := scanPrescription(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.NewNotFoundError("prescription", id)
		}
		return nil, fmt.Errorf("failed to lock prescription: %w", err)
	}

	items, err := loadPrescriptionItems(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	p.Items = items

	return p, nil
}

// UpdatePrescriptionDispense writes the line dispensed counts and the
// re-derived status for a prescription locked earlier in this transaction.
func (t *inventoryTx) UpdatePrescriptionDispense(ctx context.Context, p *domain.Prescription) error {
	query := `
		UPDATE prescriptions
		SET status = $2, dispensed_at = $3, updated_at = $4
		WHERE id = $1`

	if _, err := t.tx.Exec(ctx, query, p.ID, p.Status, p.DispensedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}

	itemQuery := `
		UPDATE prescription_items
		SET dispensed = $3
		WHERE prescription_id = $1 AND medicine_id = $2`

	batch := &pgx.Batch{}
	for i := range p.Items {
		batch.Queue(itemQuery, p.ID, p.Items[i].MedicineID, p.Items[i].Dispensed)
	}

	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()

	for range p.Items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to update prescription item: %w", err)
		}
	}

	return nil
}

// NextPrescriptionSeq reserves the next prescription number
func (t *inventoryTx) NextPrescriptionSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := t.tx.QueryRow(ctx, `SELECT nextval('prescription_number_seq')`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve prescription number: %w", err)
	}
	return seq, nil
}

// scanPrescription scans one prescription header row
func scanPrescription(row pgx.Row) (*domain.Prescription, error) {
	p := &domain.Prescription{}
	var custPhone, custEmail, custAddress sql.NullString
	var docSpec, docHospital, docPhone, docEmail sql.NullString
	var notes sql.NullString

	err := row.Scan(
		&p.ID, &p.PrescriptionNumber,
		&p.Customer.Name, &custPhone, &custEmail, &custAddress,
		&p.Doctor.Name, &p.Doctor.License, &docSpec, &docHospital,
		&docPhone, &docEmail,
		&p.Diagnosis, &notes, &p.Status, &p.Priority, &p.ValidUntil, &p.DispensedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Customer.Phone = custPhone.String
	p.Customer.Email = custEmail.String
	p.Customer.Address = custAddress.String
	p.Doctor.Specialization = docSpec.String
	p.Doctor.Hospital = docHospital.String
	p.Doctor.Phone = docPhone.String
	p.Doctor.Email = docEmail.String
	p.Notes = notes.String

	return p, nil
}

// loadPrescriptionItems reads the lines for one prescription
func loadPrescriptionItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, id uuid.UUID) ([]domain.PrescriptionItem, error) {
	query := `
		SELECT medicine_id, medicine_name, dosage, quantity, dispensed,
		       instructions, frequency, duration
		FROM prescription_items
		WHERE prescription_id = $1
		ORDER BY medicine_name`

	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescription items: %w", err)
	}
	defer rows.Close()

	var items []domain.PrescriptionItem
	for rows.Next() {
		var item domain.PrescriptionItem
		var frequency, duration sql.NullString
		if err := rows.Scan(&item.MedicineID, &item.MedicineName, &item.Dosage,
			&item.Quantity, &item.Dispensed, &item.Instructions,
			&frequency, &duration); err != nil {
			return nil, fmt.Errorf("failed to scan prescription item: %w", err)
		}
		item.Frequency = frequency.String
		item.Duration = duration.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prescription items: %w", err)
	}

	return items, nil
}
