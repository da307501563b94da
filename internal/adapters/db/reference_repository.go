// internal/adapters/db/reference_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// categoryRepository implements ports.CategoryRepository
type categoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *Database, logger *slog.Logger) ports.CategoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "category")),
	}
}

var _ ports.CategoryRepository = (*categoryRepository)(nil)

func (r *categoryRepository) Save(ctx context.Context, c *domain.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *domain.Category) error {
	c.UpdatedAt = time.Now()

	query := `UPDATE categories SET name = $2, description = $3, updated_at = $4 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, c.ID, c.Name, c.Description, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("category", c.ID)
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`

	c := &domain.Category{}
	var description sql.NullString
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	c.Description = description.String
	return c, nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var cs []*domain.Category
	for rows.Next() {
		c := &domain.Category{}
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Description = description.String
		cs = append(cs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return cs, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("category", id)
	}
	return nil
}

// supplierRepository implements ports.SupplierRepository
type supplierRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *Database, logger *slog.Logger) ports.SupplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "supplier")),
	}
}

var _ ports.SupplierRepository = (*supplierRepository)(nil)

func (r *supplierRepository) Save(ctx context.Context, s *domain.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `
		INSERT INTO suppliers (id, name, contact_person, phone, email, address, gstin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		s.ID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.GSTIN, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, s *domain.Supplier) error {
	s.UpdatedAt = time.Now()

	query := `
		UPDATE suppliers
		SET name = $2, contact_person = $3, phone = $4, email = $5, address = $6, gstin = $7, updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		s.ID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.GSTIN, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("supplier", s.ID)
	}
	return nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := `
		SELECT id, name, contact_person, phone, email, address, gstin, created_at, updated_at
		FROM suppliers WHERE id = $1`

	s := &domain.Supplier{}
	var contact, phone, email, address, gstin sql.NullString
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Name, &contact, &phone, &email, &address, &gstin, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	s.ContactPerson = contact.String
	s.Phone = phone.String
	s.Email = email.String
	s.Address = address.String
	s.GSTIN = gstin.String
	return s, nil
}

func (r *supplierRepository) FindAll(ctx context.Context) ([]*domain.Supplier, error) {
	query := `
		SELECT id, name, contact_person, phone, email, address, gstin, created_at, updated_at
		FROM suppliers ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var ss []*domain.Supplier
	for rows.Next() {
		s := &domain.Supplier{}
		var contact, phone, email, address, gstin sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &contact, &phone, &email, &address, &gstin,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		s.ContactPerson = contact.String
		s.Phone = phone.String
		s.Email = email.String
		s.Address = address.String
		s.GSTIN = gstin.String
		ss = append(ss, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ss, nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("supplier", id)
	}
	return nil
}

// notificationRepository implements ports.NotificationRepository
type notificationRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *Database, logger *slog.Logger) ports.NotificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "notification")),
	}
}

var _ ports.NotificationRepository = (*notificationRepository)(nil)

func (r *notificationRepository) Save(ctx context.Context, n *domain.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (id, type, title, message, count, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query, n.ID, n.Type, n.Title, n.Message, n.Count, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) FindUnread(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, type, title, message, count, read, created_at
		FROM notifications
		WHERE read = FALSE
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var ns []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Count, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		ns = append(ns, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ns, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("notification", id)
	}
	return nil
}

func (r *notificationRepository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM notifications WHERE read = TRUE AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
