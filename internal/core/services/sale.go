// internal/core/services/sale.go
package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// SaleService handles checkout transactions. Creating a sale and deleting a
// sale are the two stock-mutating paths; both run inside one transaction so
// the stock check and the decrement are observed as a single atomic step.
type SaleService struct {
	txm    ports.TransactionManager
	repo   ports.SaleRepository
	logger *slog.Logger
}

// Statically assert that *SaleService implements the SaleService interface.
var _ ports.SaleService = (*SaleService)(nil)

// NewSaleService creates a new sale service
func NewSaleService(txm ports.TransactionManager, repo ports.SaleRepository, logger *slog.Logger) *SaleService {
	return &SaleService{
		txm:    txm,
		repo:   repo,
		logger: logger.With(slog.String("service", "sale")),
	}
}

// CreateSale validates every line against available stock before any
// mutation, then decrements each medicine, re-derives its status and persists
// the sale — all or nothing.
func (s *SaleService) CreateSale(ctx context.Context, input ports.CreateSaleInput) (*domain.Sale, error) {
	sale := &domain.Sale{
		Customer:      input.Customer,
		Discount:      input.Discount,
		Tax:           input.Tax,
		PaymentMethod: domain.PaymentMethod(input.PaymentMethod),
		Notes:         input.Notes,
	}
	for _, line := range input.Items {
		sale.Items = append(sale.Items, domain.SaleItem{
			MedicineID: line.MedicineID,
			Quantity:   line.Quantity,
			Price:      line.Price,
		})
	}

	if err := sale.Validate(); err != nil {
		return nil, err
	}

	err := runStockTx(ctx, s.txm, func(ctx context.Context, tx ports.InventoryTx) error {
		// Total requested per medicine; a checkout may repeat a medicine
		// across lines and the stock check must see the sum.
		required := make(map[uuid.UUID]int, len(sale.Items))
		for i := range sale.Items {
			required[sale.Items[i].MedicineID] += sale.Items[i].Quantity
		}

		// Lock in ascending ID order so concurrent checkouts cannot deadlock.
		ids := make([]uuid.UUID, 0, len(required))
		for id := range required {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		medicines := make(map[uuid.UUID]*domain.Medicine, len(ids))
		for _, id := range ids {
			med, err := tx.GetMedicineForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if med.Quantity < required[id] {
				return &domain.InsufficientStockError{
					MedicineID:   med.ID,
					MedicineName: med.Name,
					Requested:    required[id],
					Available:    med.Quantity,
				}
			}
			medicines[id] = med
		}

		// Every precondition held; apply the decrements.
		now := time.Now()
		for _, id := range ids {
			med := medicines[id]
			med.Quantity -= required[id]
			med.RefreshStatus(now)
			if err := tx.UpdateMedicineStock(ctx, med.ID, med.Quantity, med.Status); err != nil {
				return err
			}
		}

		// Snapshot name and batch onto the lines at sale time.
		for i := range sale.Items {
			med := medicines[sale.Items[i].MedicineID]
			sale.Items[i].MedicineName = med.Name
			sale.Items[i].Batch = med.Batch
		}

		sale.PrepareForStorage()
		return tx.InsertSale(ctx, sale)
	})
	if err != nil {
		return nil, domain.WrapStorage("create sale", err)
	}

	s.logger.InfoContext(ctx, "sale created",
		slog.String("id", sale.ID.String()),
		slog.Int("lines", len(sale.Items)),
		slog.String("total", sale.Total.String()))

	return sale, nil
}

// DeleteSale restores each line's quantity to its medicine and removes the
// sale. Lines whose medicine no longer exists are skipped rather than
// failing the deletion.
func (s *SaleService) DeleteSale(ctx context.Context, id uuid.UUID) error {
	err := runStockTx(ctx, s.txm, func(ctx context.Context, tx ports.InventoryTx) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}

		restock := make(map[uuid.UUID]int, len(sale.Items))
		for i := range sale.Items {
			restock[sale.Items[i].MedicineID] += sale.Items[i].Quantity
		}

		ids := make([]uuid.UUID, 0, len(restock))
		for mid := range restock {
			ids = append(ids, mid)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

		now := time.Now()
		for _, mid := range ids {
			med, err := tx.GetMedicineForUpdate(ctx, mid)
			if err != nil {
				var nf *domain.NotFoundError
				if errors.As(err, &nf) {
					s.logger.WarnContext(ctx, "skipping restock for deleted medicine",
						slog.String("sale_id", id.String()),
						slog.String("medicine_id", mid.String()))
					continue
				}
				return err
			}
			med.Quantity += restock[mid]
			med.RefreshStatus(now)
			if err := tx.UpdateMedicineStock(ctx, med.ID, med.Quantity, med.Status); err != nil {
				return err
			}
		}

		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return domain.WrapStorage("delete sale", err)
	}

	s.logger.InfoContext(ctx, "sale deleted and stock restored",
		slog.String("id", id.String()))

	return nil
}

// GetByID retrieves a sale with its lines
func (s *SaleService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.WrapStorage("get sale", err)
	}
	if sale == nil {
		return nil, domain.NewNotFoundError("sale", id)
	}
	return sale, nil
}

// List retrieves sales with filtering and pagination
func (s *SaleService) List(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
	query := ports.SaleQueryParams{
		Customer:      params.Customer,
		PaymentStatus: params.PaymentStatus,
		StartDate:     params.StartDate,
		EndDate:       params.EndDate,
		SortOrder:     params.SortOrder,
		Limit:         params.PageSize,
		Offset:        (params.Page - 1) * params.PageSize,
	}

	items, totalCount, err := s.repo.FindAll(ctx, query)
	if err != nil {
		return nil, domain.WrapStorage("list sales", err)
	}

	var totalPages int
	if params.PageSize > 0 {
		totalPages = int(totalCount) / params.PageSize
		if int(totalCount)%params.PageSize > 0 {
			totalPages++
		}
	}

	return &ports.SaleListResult{
		Items:      items,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// UpdateMeta updates payment status and notes. Sale lines are immutable once
// the checkout committed; correcting a sale means deleting and re-creating it.
func (s *SaleService) UpdateMeta(ctx context.Context, id uuid.UUID, paymentStatus domain.PaymentStatus, notes string) (*domain.Sale, error) {
	switch paymentStatus {
	case domain.PaymentPending, domain.PaymentCompleted, domain.PaymentFailed, domain.PaymentRefunded:
	default:
		return nil, domain.NewValidationError("payment_status", "invalid payment status")
	}

	sale, err := s.repo.UpdateMeta(ctx, id, paymentStatus, notes)
	if err != nil {
		return nil, domain.WrapStorage("update sale", err)
	}
	if sale == nil {
		return nil, domain.NewNotFoundError("sale", id)
	}

	s.logger.InfoContext(ctx, "sale updated",
		slog.String("id", id.String()),
		slog.String("payment_status", string(paymentStatus)))

	return sale, nil
}
