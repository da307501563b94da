// internal/core/services/prescription.go
package services

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// PrescriptionService handles prescription lifecycle and dispensing
type PrescriptionService struct {
	txm    ports.TransactionManager
	repo   ports.PrescriptionRepository
	logger *slog.Logger
}

// Statically assert that *PrescriptionService implements the PrescriptionService interface.
var _ ports.PrescriptionService = (*PrescriptionService)(nil)

// NewPrescriptionService creates a new prescription service
func NewPrescriptionService(txm ports.TransactionManager, repo ports.PrescriptionRepository, logger *slog.Logger) *PrescriptionService {
	return &PrescriptionService{
		txm:    txm,
		repo:   repo,
		logger: logger.With(slog.String("service", "prescription")),
	}
}

// CreatePrescription persists a new prescription with every line starting at
// dispensed=0 and a sequentially assigned RX number. Every referenced
// medicine must exist; its name is snapshotted onto the line the same way
// CreateSale snapshots sale lines.
func (s *PrescriptionService) CreatePrescription(ctx context.Context, p *domain.Prescription) error {
	for i := range p.Items {
		p.Items[i].Dispensed = 0
	}

	if err := p.Validate(); err != nil {
		return err
	}

	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx ports.InventoryTx) error {
		ids := make([]uuid.UUID, 0, len(p.Items))
		seen := make(map[uuid.UUID]bool, len(p.Items))
		for i := range p.Items {
			if !seen[p.Items[i].MedicineID] {
				seen[p.Items[i].MedicineID] = true
				ids = append(ids, p.Items[i].MedicineID)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		names := make(map[uuid.UUID]string, len(ids))
		for _, id := range ids {
			med, err := tx.GetMedicineForUpdate(ctx, id)
			if err != nil {
				return err
			}
			names[id] = med.Name
		}
		for i := range p.Items {
			p.Items[i].MedicineName = names[p.Items[i].MedicineID]
		}

		if p.PrescriptionNumber == "" {
			seq, err := tx.NextPrescriptionSeq(ctx)
			if err != nil {
				return err
			}
			p.PrescriptionNumber = domain.FormatPrescriptionNumber(seq)
		}

		p.PrepareForStorage()
		return tx.InsertPrescription(ctx, p)
	})
	if err != nil {
		return domain.WrapStorage("create prescription", err)
	}

	s.logger.InfoContext(ctx, "prescription created",
		slog.String("id", p.ID.String()),
		slog.String("number", p.PrescriptionNumber),
		slog.Int("lines", len(p.Items)))

	return nil
}

// Dispense fulfills part or all of one prescription line from stock. The
// prescription and the medicine are locked together; on any precondition
// failure neither document is mutated.
func (s *PrescriptionService) Dispense(ctx context.Context, input ports.DispenseInput) (*domain.Prescription, error) {
	if input.Quantity < 1 {
		return nil, domain.NewValidationError("quantity", "quantity must be at least 1")
	}

	var result *domain.Prescription
	err := runStockTx(ctx, s.txm, func(ctx context.Context, tx ports.InventoryTx) error {
		p, err := tx.GetPrescriptionForUpdate(ctx, input.PrescriptionID)
		if err != nil {
			return err
		}
		if p.Status == domain.PrescriptionCancelled {
			return domain.ErrPrescriptionCancelled
		}

		line := p.ItemByMedicine(input.MedicineID)
		if line == nil {
			return domain.NewNotFoundError("medicine in prescription", input.MedicineID)
		}

		if remaining := line.Remaining(); input.Quantity > remaining {
			return &domain.ExceedsPrescribedError{
				PrescriptionID: p.ID,
				MedicineID:     input.MedicineID,
				Requested:      input.Quantity,
				Remaining:      remaining,
			}
		}

		med, err := tx.GetMedicineForUpdate(ctx, input.MedicineID)
		if err != nil {
			return err
		}
		if med.Quantity < input.Quantity {
			return &domain.InsufficientStockError{
				MedicineID:   med.ID,
				MedicineName: med.Name,
				Requested:    input.Quantity,
				Available:    med.Quantity,
			}
		}

		now := time.Now()
		med.Quantity -= input.Quantity
		med.RefreshStatus(now)
		if err := tx.UpdateMedicineStock(ctx, med.ID, med.Quantity, med.Status); err != nil {
			return err
		}

		line.Dispensed += input.Quantity
		p.DeriveStatus(now)
		p.UpdatedAt = now
		if err := tx.UpdatePrescriptionDispense(ctx, p); err != nil {
			return err
		}

		result = p
		return nil
	})
	if err != nil {
		return nil, domain.WrapStorage("dispense", err)
	}

	s.logger.InfoContext(ctx, "medicine dispensed",
		slog.String("prescription_id", input.PrescriptionID.String()),
		slog.String("medicine_id", input.MedicineID.String()),
		slog.Int("quantity", input.Quantity),
		slog.String("status", string(result.Status)))

	return result, nil
}

// GetByID retrieves a prescription with its lines
func (s *PrescriptionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prescription, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStorage("get prescription", err)
	}
	if p == nil {
		return nil, domain.NewNotFoundError("prescription", id)
	}
	return p, nil
}

// List retrieves prescriptions with filtering and pagination
func (s *PrescriptionService) List(ctx context.Context, params ports.PrescriptionListParams) (*ports.PrescriptionListResult, error) {
	query := ports.PrescriptionQueryParams{
		Status:    params.Status,
		Priority:  params.Priority,
		Customer:  params.Customer,
		Doctor:    params.Doctor,
		SortOrder: params.SortOrder,
		Limit:     params.PageSize,
		Offset:    (params.Page - 1) * params.PageSize,
	}

	items, totalCount, err := s.repo.FindAll(ctx, query)
	if err != nil {
		return nil, domain.WrapStorage("list prescriptions", err)
	}

	var totalPages int
	if params.PageSize > 0 {
		totalPages = int(totalCount) / params.PageSize
		if int(totalCount)%params.PageSize > 0 {
			totalPages++
		}
	}

	return &ports.PrescriptionListResult{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// UpdateMeta updates prescription metadata (diagnosis, notes, priority,
// validity). Lines and dispensed counts are only mutated through Dispense.
func (s *PrescriptionService) UpdateMeta(ctx context.Context, p *domain.Prescription) error {
	existing, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing.Status == domain.PrescriptionCancelled {
		return domain.ErrPrescriptionCancelled
	}

	p.UpdatedAt = time.Now()
	if err := s.repo.UpdateMeta(ctx, p); err != nil {
		return domain.WrapStorage("update prescription", err)
	}

	s.logger.InfoContext(ctx, "prescription updated",
		slog.String("id", p.ID.String()))

	return nil
}

// Cancel marks a prescription cancelled. Cancelled prescriptions are never
// mutated again.
func (s *PrescriptionService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Prescription, error) {
	p, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, domain.WrapStorage("cancel prescription", err)
	}
	if p == nil {
		return nil, domain.NewNotFoundError("prescription", id)
	}

	s.logger.InfoContext(ctx, "prescription cancelled",
		slog.String("id", id.String()))

	return p, nil
}

// Delete removes a prescription. Dispensed stock is not restored; a
// prescription delete is an administrative cleanup, not a refund.
func (s *PrescriptionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return domain.WrapStorage("delete prescription", err)
	}

	s.logger.InfoContext(ctx, "prescription deleted",
		slog.String("id", id.String()))

	return nil
}
