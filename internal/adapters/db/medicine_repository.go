// internal/adapters/db/medicine_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// medicineColumns is the canonical select list shared by all reads.
var medicineColumns = []string{
	"id", "name", "category_id", "supplier_id", "batch", "expiry_date",
	"quantity", "price", "mrp", "par_level", "status",
	"description", "manufacturer", "dosage", "form", "prescription_required",
	"barcode", "tags", "created_at", "updated_at",
}

// statusCase derives the stored status in SQL with the same precedence the
// domain uses: zero stock, hard expiry, expiring-soon window, par level.
const statusCase = `CASE
	WHEN quantity = 0 THEN 'expired'
	WHEN expiry_date <= $1 THEN 'expired'
	WHEN expiry_date <= $1 + INTERVAL '30 days' THEN 'expiring-soon'
	WHEN quantity <= par_level THEN 'low-stock'
	ELSE 'in-stock'
END`

// medicineRepository implements ports.MedicineRepository
type medicineRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewMedicineRepository creates a new medicine repository
func NewMedicineRepository(db *Database, logger *slog.Logger) ports.MedicineRepository {
	return &medicineRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "medicine")),
	}
}

var _ ports.MedicineRepository = (*medicineRepository)(nil)

// Save creates a new medicine batch
func (r *medicineRepository) Save(ctx context.Context, m *domain.Medicine) error {
	query := `
		INSERT INTO medicines (
			id, name, category_id, supplier_id, batch, expiry_date,
			quantity, price, mrp, par_level, status,
			description, manufacturer, dosage, form, prescription_required,
			barcode, tags, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		) RETURNING id, created_at, updated_at`

	tagsStr := strings.Join(m.Tags, ",")

	err := r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.CategoryID, m.SupplierID, m.Batch, m.ExpiryDate,
		m.Quantity, m.Price, m.MRP, m.ParLevel, m.Status,
		m.Description, m.Manufacturer, m.Dosage, m.Form, m.PrescriptionRequired,
		m.Barcode, tagsStr, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save medicine: %w", err)
	}

	r.logger.DebugContext(ctx, "medicine saved",
		slog.String("id", m.ID.String()),
		slog.String("batch", m.Batch))

	return nil
}

// SaveBatch saves multiple medicines in a transaction
func (r *medicineRepository) SaveBatch(ctx context.Context, ms []domain.Medicine) error {
	if len(ms) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}

		query := `
			INSERT INTO medicines (
				id, name, category_id, supplier_id, batch, expiry_date,
				quantity, price, mrp, par_level, status,
				description, manufacturer, dosage, form, prescription_required,
				barcode, tags, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
			) RETURNING id`

		for i := range ms {
			tagsStr := strings.Join(ms[i].Tags, ",")
			batch.Queue(query,
				ms[i].ID, ms[i].Name, ms[i].CategoryID, ms[i].SupplierID, ms[i].Batch, ms[i].ExpiryDate,
				ms[i].Quantity, ms[i].Price, ms[i].MRP, ms[i].ParLevel, ms[i].Status,
				ms[i].Description, ms[i].Manufacturer, ms[i].Dosage, ms[i].Form, ms[i].PrescriptionRequired,
				ms[i].Barcode, tagsStr, ms[i].CreatedAt, ms[i].UpdatedAt,
			)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for i := range ms {
			if err := br.QueryRow().Scan(&ms[i].ID); err != nil {
				return fmt.Errorf("failed to save medicine %d: %w", i, err)
			}
		}

		return nil
	})
}

// Update updates an existing medicine
func (r *medicineRepository) Update(ctx context.Context, m *domain.Medicine) error {
	query := `
		UPDATE medicines SET
			name = $2, category_id = $3, supplier_id = $4, batch = $5,
			expiry_date = $6, quantity = $7, price = $8, mrp = $9,
			par_level = $10, status = $11, description = $12,
			manufacturer = $13, dosage = $14, form = $15,
			prescription_required = $16, barcode = $17, tags = $18,
			updated_at = $19
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	tagsStr := strings.Join(m.Tags, ",")

	err := r.db.QueryRow(ctx, query,
		m.ID, m.Name, m.CategoryID, m.SupplierID, m.Batch,
		m.ExpiryDate, m.Quantity, m.Price, m.MRP,
		m.ParLevel, m.Status, m.Description,
		m.Manufacturer, m.Dosage, m.Form,
		m.PrescriptionRequired, m.Barcode, tagsStr,
		m.UpdatedAt,
	).Scan(&m.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.NewNotFoundError("medicine", m.ID)
		}
		return fmt.Errorf("failed to update medicine: %w", err)
	}

	r.logger.DebugContext(ctx, "medicine updated",
		slog.String("id", m.ID.String()))

	return nil
}

// scanMedicine scans one medicine row in medicineColumns order
func scanMedicine(row pgx.Row) (*domain.Medicine, error) {
	m := &domain.Medicine{}
	var description, manufacturer, dosage, barcode, tagsStr sql.NullString

	err := row.Scan(
		&m.ID, &m.Name, &m.CategoryID, &m.SupplierID, &m.Batch, &m.ExpiryDate,
		&m.Quantity, &m.Price, &m.MRP, &m.ParLevel, &m.Status,
		&description, &manufacturer, &dosage, &m.Form, &m.PrescriptionRequired,
		&barcode, &tagsStr, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Description = description.String
	m.Manufacturer = manufacturer.String
	m.Dosage = dosage.String
	m.Barcode = barcode.String
	if tagsStr.Valid && tagsStr.String != "" {
		m.Tags = strings.Split(tagsStr.String, ",")
	}

	return m, nil
}

// FindByID retrieves a medicine by ID
func (r *medicineRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Medicine, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM medicines
		WHERE id = $1 AND deleted_at IS NULL`, strings.Join(medicineColumns, ", "))

	m, err := scanMedicine(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find medicine: %w", err)
	}

	return m, nil
}

// FindAll retrieves medicines with filtering and pagination
func (r *medicineRepository) FindAll(ctx context.Context, params ports.MedicineQueryParams) ([]*domain.Medicine, int64, error) {
	qb := squirrel.Select(medicineColumns...).
		From("medicines").
		Where("deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"manufacturer": pattern},
			squirrel.ILike{"barcode": pattern},
		})
	}
	if params.CategoryID != uuid.Nil {
		qb = qb.Where(squirrel.Eq{"category_id": params.CategoryID})
	}
	if params.SupplierID != uuid.Nil {
		qb = qb.Where(squirrel.Eq{"supplier_id": params.SupplierID})
	}
	if params.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": params.Status})
	}
	if params.Form != "" {
		qb = qb.Where(squirrel.Eq{"form": params.Form})
	}
	if params.Batch != "" {
		qb = qb.Where(squirrel.Eq{"batch": params.Batch})
	}

	// Count total items (before pagination)
	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount)
	if err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count medicines: %w", err)
	}

	orderBy := "created_at DESC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "name":
			orderBy = fmt.Sprintf("name %s", direction)
		case "expiry":
			orderBy = fmt.Sprintf("expiry_date %s", direction)
		case "quantity":
			orderBy = fmt.Sprintf("quantity %s", direction)
		case "price":
			orderBy = fmt.Sprintf("price %s", direction)
		case "updated":
			orderBy = fmt.Sprintf("updated_at %s", direction)
		default:
			orderBy = fmt.Sprintf("created_at %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

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
		return nil, 0, fmt.Errorf("failed to query medicines: %w", err)
	}
	defer rows.Close()

	var ms []*domain.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan medicine: %w", err)
		}
		ms = append(ms, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return ms, totalCount, nil
}

// FindByStatus retrieves all medicines with a given stored status
func (r *medicineRepository) FindByStatus(ctx context.Context, status domain.MedicineStatus) ([]*domain.Medicine, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM medicines
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY name ASC`, strings.Join(medicineColumns, ", "))

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query medicines by status: %w", err)
	}
	defer rows.Close()

	var ms []*domain.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		ms = append(ms, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ms, nil
}

// FindExpiring retrieves live stock whose expiry falls within the window
func (r *medicineRepository) FindExpiring(ctx context.Context, within time.Duration) ([]*domain.Medicine, error) {
	now := time.Now()
	query := fmt.Sprintf(`
		SELECT %s FROM medicines
		WHERE deleted_at IS NULL
		  AND quantity > 0
		  AND expiry_date > $1
		  AND expiry_date <= $2
		ORDER BY expiry_date ASC`, strings.Join(medicineColumns, ", "))

	rows, err := r.db.Query(ctx, query, now, now.Add(within))
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring medicines: %w", err)
	}
	defer rows.Close()

	var ms []*domain.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medicine: %w", err)
		}
		ms = append(ms, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ms, nil
}

// Delete performs a hard delete
func (r *medicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM medicines WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("medicine", id)
	}

	r.logger.InfoContext(ctx, "medicine deleted",
		slog.String("id", id.String()))

	return nil
}

// SoftDelete marks a medicine as deleted
func (r *medicineRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE medicines SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	now := time.Now()
	tag, err := r.db.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to soft delete medicine: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("medicine", id)
	}

	r.logger.InfoContext(ctx, "medicine soft deleted",
		slog.String("id", id.String()))

	return nil
}

// Count returns the total number of live medicines
func (r *medicineRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM medicines WHERE deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}

	return count, nil
}

// CountByStatus returns live medicine counts grouped by stored status
func (r *medicineRepository) CountByStatus(ctx context.Context) (map[domain.MedicineStatus]int64, error) {
	query := `
		SELECT status, COUNT(*) FROM medicines
		WHERE deleted_at IS NULL
		GROUP BY status`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count medicines by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.MedicineStatus]int64)
	for rows.Next() {
		var status domain.MedicineStatus
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

// Exists checks if a live medicine exists
func (r *medicineRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM medicines WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// RefreshStatuses re-derives the stored status of every live medicine at the
// given instant. Only rows whose status actually changes are touched.
func (r *medicineRepository) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`
		WITH derived AS (
			SELECT id, %s AS next_status
			FROM medicines
			WHERE deleted_at IS NULL
		)
		UPDATE medicines m
		SET status = d.next_status, updated_at = $1
		FROM derived d
		WHERE m.id = d.id AND m.status <> d.next_status`, statusCase)

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh medicine statuses: %w", err)
	}

	return tag.RowsAffected(), nil
}
