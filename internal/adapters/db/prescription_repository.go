// internal/adapters/db/prescription_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// prescriptionRepository implements ports.PrescriptionRepository. Dispensing
// runs through the transaction port, not through this repository.
type prescriptionRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewPrescriptionRepository creates a new prescription repository
func NewPrescriptionRepository(db *Database, logger *slog.Logger) ports.PrescriptionRepository {
	return &prescriptionRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "prescription")),
	}
}

var _ ports.PrescriptionRepository = (*prescriptionRepository)(nil)

const prescriptionColumns = `id, prescription_number,
	customer_name, customer_phone, customer_email, customer_address,
	doctor_name, doctor_license, doctor_specialization, doctor_hospital,
	doctor_phone, doctor_email,
	diagnosis, notes, status, priority, valid_until, dispensed_at,
	created_at, updated_at`

// FindByID retrieves a prescription with its lines
func (r *prescriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Prescription, error) {
	query := fmt.Sprintf(`SELECT %s FROM prescriptions WHERE id = $1`, prescriptionColumns)

	p, err := scanPrescription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find prescription: %w", err)
	}

	items, err := loadPrescriptionItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	p.Items = items

	return p, nil
}

// FindAll retrieves prescriptions with filtering and pagination
func (r *prescriptionRepository) FindAll(ctx context.Context, params ports.PrescriptionQueryParams) ([]*domain.Prescription, int64, error) {
	qb := squirrel.Select(
		"id", "prescription_number",
		"customer_name", "customer_phone", "customer_email", "customer_address",
		"doctor_name", "doctor_license", "doctor_specialization", "doctor_hospital",
		"doctor_phone", "doctor_email",
		"diagnosis", "notes", "status", "priority", "valid_until", "dispensed_at",
		"created_at", "updated_at",
	).From("prescriptions").
		PlaceholderFormat(squirrel.Dollar)

	if params.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": params.Status})
	}
	if params.Priority != "" {
		qb = qb.Where(squirrel.Eq{"priority": params.Priority})
	}
	if params.Customer != "" {
		pattern := "%" + params.Customer + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"customer_name": pattern},
			squirrel.ILike{"customer_phone": pattern},
		})
	}
	if params.Doctor != "" {
		pattern := "%" + params.Doctor + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"doctor_name": pattern},
			squirrel.ILike{"doctor_license": pattern},
		})
	}

	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount)
	if err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}

	direction := "DESC"
	if params.SortOrder == "asc" {
		direction = "ASC"
	}
	qb = qb.OrderBy("created_at " + direction)

	if params.Limit > 0 {
		qb = qb.Limit(uint64(params.Limit))
	}
	if params.Offset > 0 {
		qb = qb.Offset(uint64(params.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	var ps []*domain.Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan prescription: %w", err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	for _, p := range ps {
		items, err := loadPrescriptionItems(ctx, r.db, p.ID)
		if err != nil {
			return nil, 0, err
		}
		p.Items = items
	}

	return ps, totalCount, nil
}

// UpdateMeta updates prescription metadata; lines and status stay untouched
func (r *prescriptionRepository) UpdateMeta(ctx context.Context, p *domain.Prescription) error {
	query := `
		UPDATE prescriptions
		SET customer_name = $2, customer_phone = $3, customer_email = $4, customer_address = $5,
		    doctor_name = $6, doctor_license = $7, doctor_specialization = $8, doctor_hospital = $9,
		    doctor_phone = $10, doctor_email = $11,
		    diagnosis = $12, notes = $13, priority = $14, valid_until = $15,
		    updated_at = $16
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		p.ID, p.Customer.Name, p.Customer.Phone, p.Customer.Email, p.Customer.Address,
		p.Doctor.Name, p.Doctor.License, p.Doctor.Specialization, p.Doctor.Hospital,
		p.Doctor.Phone, p.Doctor.Email,
		p.Diagnosis, p.Notes, p.Priority, p.ValidUntil,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("prescription", p.ID)
	}

	r.logger.DebugContext(ctx, "prescription metadata updated",
		slog.String("id", p.ID.String()))

	return nil
}

// Cancel marks a prescription cancelled and returns the updated document
func (r *prescriptionRepository) Cancel(ctx context.Context, id uuid.UUID) (*domain.Prescription, error) {
	query := fmt.Sprintf(`
		UPDATE prescriptions
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING %s`, prescriptionColumns)

	p, err := scanPrescription(r.db.QueryRow(ctx, query, id, domain.PrescriptionCancelled, time.Now()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to cancel prescription: %w", err)
	}

	items, err := loadPrescriptionItems(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	p.Items = items

	return p, nil
}

// Delete removes a prescription; its lines cascade
func (r *prescriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("prescription", id)
	}

	r.logger.InfoContext(ctx, "prescription deleted",
		slog.String("id", id.String()))

	return nil
}

// Count returns the total number of prescriptions
func (r *prescriptionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}
	return count, nil
}

// CountByStatus returns prescription counts grouped by status
func (r *prescriptionRepository) CountByStatus(ctx context.Context) (map[domain.PrescriptionStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM prescriptions GROUP BY status`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count prescriptions by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PrescriptionStatus]int64)
	for rows.Next() {
		var status domain.PrescriptionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}
