// internal/core/services/medicine.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// MedicineService handles medicine inventory business logic
type MedicineService struct {
	repo   ports.MedicineRepository
	logger *slog.Logger
}

// Statically assert that *MedicineService implements the MedicineService interface.
var _ ports.MedicineService = (*MedicineService)(nil)

// NewMedicineService creates a new medicine service
func NewMedicineService(repo ports.MedicineRepository, logger *slog.Logger) *MedicineService {
	return &MedicineService{
		repo:   repo,
		logger: logger.With(slog.String("service", "medicine")),
	}
}

// SaveMedicine saves a single medicine batch. The stored status is always
// re-derived from quantity, par level and expiry; caller-supplied status is
// discarded.
func (s *MedicineService) SaveMedicine(ctx context.Context, m *domain.Medicine) error {
	if err := m.Validate(); err != nil {
		return domain.NewValidationError("", err.Error())
	}

	m.PrepareForStorage()

	if err := s.repo.Save(ctx, m); err != nil {
		return domain.WrapStorage("save medicine", err)
	}

	s.logger.InfoContext(ctx, "saved medicine",
		slog.String("id", m.ID.String()),
		slog.String("name", m.Name),
		slog.String("batch", m.Batch),
		slog.String("status", string(m.Status)))

	return nil
}

// SaveMedicines saves multiple medicines, validating all before writing any
func (s *MedicineService) SaveMedicines(ctx context.Context, ms []domain.Medicine) error {
	if len(ms) == 0 {
		s.logger.InfoContext(ctx, "no medicines to save")
		return nil
	}

	for i := range ms {
		if err := ms[i].Validate(); err != nil {
			return domain.NewValidationError("", fmt.Sprintf("medicine %s: %v", ms[i].Name, err))
		}
		ms[i].PrepareForStorage()
	}

	if err := s.repo.SaveBatch(ctx, ms); err != nil {
		return domain.WrapStorage("save medicines batch", err)
	}

	s.logger.InfoContext(ctx, "saved medicines",
		slog.Int("count", len(ms)))

	return nil
}

// GetByID retrieves a medicine by ID
func (s *MedicineService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Medicine, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStorage("get medicine", err)
	}
	if m == nil {
		return nil, domain.NewNotFoundError("medicine", id)
	}
	return m, nil
}

// UpdateMedicine updates an existing medicine. Status is re-derived, never
// taken from the caller.
func (s *MedicineService) UpdateMedicine(ctx context.Context, id uuid.UUID, m *domain.Medicine) error {
	m.ID = id

	if err := m.Validate(); err != nil {
		return domain.NewValidationError("", err.Error())
	}

	m.RefreshStatus(time.Now())
	m.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, m); err != nil {
		return domain.WrapStorage("update medicine", err)
	}

	s.logger.InfoContext(ctx, "updated medicine",
		slog.String("id", id.String()),
		slog.String("status", string(m.Status)))

	return nil
}

// DeleteMedicine deletes a medicine (soft delete by default)
func (s *MedicineService) DeleteMedicine(ctx context.Context, id uuid.UUID, permanent bool) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return domain.WrapStorage("check medicine existence", err)
	}
	if !exists {
		return domain.NewNotFoundError("medicine", id)
	}

	if permanent {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id)
	}
	if err != nil {
		return domain.WrapStorage("delete medicine", err)
	}

	s.logger.InfoContext(ctx, "deleted medicine",
		slog.String("id", id.String()),
		slog.Bool("permanent", permanent))

	return nil
}

// List retrieves medicines with filtering and pagination
func (s *MedicineService) List(ctx context.Context, params ports.MedicineListParams) (*ports.MedicineListResult, error) {
	query := ports.MedicineQueryParams{
		Search:     params.Search,
		CategoryID: params.CategoryID,
		SupplierID: params.SupplierID,
		Status:     params.Status,
		Form:       params.Form,
		Batch:      params.Batch,
		SortBy:     params.SortBy,
		SortOrder:  params.SortOrder,
		Limit:      params.PageSize,
		Offset:     (params.Page - 1) * params.PageSize,
	}

	items, totalCount, err := s.repo.FindAll(ctx, query)
	if err != nil {
		return nil, domain.WrapStorage("list medicines", err)
	}

	var totalPages int
	if params.PageSize > 0 {
		totalPages = int(totalCount) / params.PageSize
		if int(totalCount)%params.PageSize > 0 {
			totalPages++
		}
	}

	return &ports.MedicineListResult{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// GetByStatus retrieves all medicines with a given derived status
func (s *MedicineService) GetByStatus(ctx context.Context, status domain.MedicineStatus) ([]*domain.Medicine, error) {
	items, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, domain.WrapStorage("get medicines by status", err)
	}
	return items, nil
}

// GetExpiring retrieves medicines expiring within the given number of days
func (s *MedicineService) GetExpiring(ctx context.Context, days int) ([]*domain.Medicine, error) {
	if days <= 0 {
		days = 30
	}

	items, err := s.repo.FindExpiring(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, domain.WrapStorage("get expiring medicines", err)
	}
	return items, nil
}

// RefreshStatuses re-derives stored statuses for time-passage transitions.
// Quantities never change here; only the expiry clock moves.
func (s *MedicineService) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	changed, err := s.repo.RefreshStatuses(ctx, now)
	if err != nil {
		return 0, domain.WrapStorage("refresh medicine statuses", err)
	}

	if changed > 0 {
		s.logger.InfoContext(ctx, "medicine statuses refreshed",
			slog.Int64("changed", changed))
	}

	return changed, nil
}
