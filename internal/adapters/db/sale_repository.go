// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// saleRepository implements ports.SaleRepository. This is the read/metadata
// side only; stock-mutating sale writes run through the transaction port.
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sale")),
	}
}

var _ ports.SaleRepository = (*saleRepository)(nil)

const saleColumns = `id, customer_name, customer_phone, customer_email, customer_address,
	subtotal, discount, tax, total,
	payment_method, payment_status, notes, created_at, updated_at`

// scanSale scans one sale header row in saleColumns order
func scanSale(row pgx.Row) (*domain.Sale, error) {
	sale := &domain.Sale{}
	var phone, email, address, notes sql.NullString

	err := row.Scan(
		&sale.ID, &sale.Customer.Name, &phone, &email, &address,
		&sale.Subtotal, &sale.Discount, &sale.Tax, &sale.Total,
		&sale.PaymentMethod, &sale.PaymentStatus, &notes, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sale.Customer.Phone = phone.String
	sale.Customer.Email = email.String
	sale.Customer.Address = address.String
	sale.Notes = notes.String

	return sale, nil
}

// FindByID retrieves a sale with its lines
func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1`, saleColumns)

	sale, err := scanSale(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	if err := r.loadItems(ctx, map[uuid.UUID]*domain.Sale{sale.ID: sale}); err != nil {
		return nil, err
	}

	return sale, nil
}

// FindAll retrieves sales with filtering and pagination
func (r *saleRepository) FindAll(ctx context.Context, params ports.SaleQueryParams) ([]*domain.Sale, int64, error) {
	qb := squirrel.Select(
		"id", "customer_name", "customer_phone", "customer_email", "customer_address",
		"subtotal", "discount", "tax", "total",
		"payment_method", "payment_status", "notes", "created_at", "updated_at",
	).From("sales").
		PlaceholderFormat(squirrel.Dollar)

	if params.Customer != "" {
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"customer_name": "%" + params.Customer + "%"},
			squirrel.ILike{"customer_phone": "%" + params.Customer + "%"},
		})
	}
	if params.PaymentStatus != "" {
		qb = qb.Where(squirrel.Eq{"payment_status": params.PaymentStatus})
	}
	if params.StartDate != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *params.StartDate})
	}
	if params.EndDate != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": *params.EndDate})
	}

	countQb := qb.Column("COUNT(*) OVER()").Limit(1)
	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	err = r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount)
	if err != nil && err != pgx.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
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
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	byID := make(map[uuid.UUID]*domain.Sale)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
		byID[sale.ID] = sale
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, 0, err
	}

	return sales, totalCount, nil
}

// loadItems attaches sale lines to the given sales in one query
func (r *saleRepository) loadItems(ctx context.Context, sales map[uuid.UUID]*domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(sales))
	for id := range sales {
		ids = append(ids, id)
	}

	query := `
		SELECT sale_id, medicine_id, medicine_name, batch, quantity, price, total
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY medicine_name`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var saleID uuid.UUID
		var item domain.SaleItem
		var batch sql.NullString
		if err := rows.Scan(&saleID, &item.MedicineID, &item.MedicineName, &batch,
			&item.Quantity, &item.Price, &item.Total); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		item.Batch = batch.String
		if sale, ok := sales[saleID]; ok {
			sale.Items = append(sale.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating sale items: %w", err)
	}

	return nil
}

// UpdateMeta updates payment status and notes on a sale
func (r *saleRepository) UpdateMeta(ctx context.Context, id uuid.UUID, paymentStatus domain.PaymentStatus, notes string) (*domain.Sale, error) {
	query := fmt.Sprintf(`
		UPDATE sales
		SET payment_status = $2, notes = $3, updated_at = $4
		WHERE id = $1
		RETURNING %s`, saleColumns)

	sale, err := scanSale(r.db.QueryRow(ctx, query, id, paymentStatus, notes, time.Now()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}

	if err := r.loadItems(ctx, map[uuid.UUID]*domain.Sale{sale.ID: sale}); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "sale metadata updated",
		slog.String("id", id.String()))

	return sale, nil
}

// Count returns the total number of sales
func (r *saleRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sales: %w", err)
	}
	return count, nil
}

// Exists checks if a sale exists
func (r *saleRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sales WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}
