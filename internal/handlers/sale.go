// internal/handlers/sale.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// SaleHandler handles checkout HTTP requests
type SaleHandler struct {
	service ports.SaleService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service ports.SaleService, cache ports.CacheRepository, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "sale")),
	}
}

// CreateSale handles POST /api/v1/sales
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.CreateSale(ctx, req.ToInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create sale",
			slog.Int("lines", len(req.Items)),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	redis_a.InvalidateMedicineCache(ctx, h.cache, h.logger)

	h.logger.InfoContext(ctx, "sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("items", sale.TotalItems()),
		slog.String("total", sale.Total.String()))

	respondJSON(w, h.logger, http.StatusCreated, sale)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	sale, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get sale",
			slog.String("sale_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, sale)
}

// ListSales handles GET /api/v1/sales
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.SaleListParams{
		Customer:      r.URL.Query().Get("customer"),
		PaymentStatus: r.URL.Query().Get("payment_status"),
		SortOrder:     "desc",
		Page:          parsePositiveInt(r.URL.Query().Get("page"), 1),
		PageSize:      parsePositiveInt(r.URL.Query().Get("limit"), 50),
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			params.StartDate = &t
		}
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			params.EndDate = &t
		}
	}

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sales",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// UpdateSale handles PUT /api/v1/sales/{id}. Only payment status and notes
// are updatable; sale lines are immutable once written.
func (h *SaleHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	var req UpdateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := h.service.UpdateMeta(ctx, id, domain.PaymentStatus(req.PaymentStatus), req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update sale",
			slog.String("sale_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "sale updated",
		slog.String("sale_id", idStr),
		slog.String("payment_status", req.PaymentStatus))

	respondJSON(w, h.logger, http.StatusOK, sale)
}

// DeleteSale handles DELETE /api/v1/sales/{id}. Deleting a sale restores
// each line's quantity to its medicine.
func (h *SaleHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid sale ID format")
		return
	}

	if err := h.service.DeleteSale(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete sale",
			slog.String("sale_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	redis_a.InvalidateMedicineCache(ctx, h.cache, h.logger)

	h.logger.InfoContext(ctx, "sale deleted and stock restored",
		slog.String("sale_id", idStr))

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Sale deleted and stock restored",
		"id":      idStr,
	})
}

// Request/Response DTOs

// SaleItemRequest is one requested checkout line
type SaleItemRequest struct {
	MedicineID uuid.UUID       `json:"medicine_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// CreateSaleRequest represents the request body for checkout
type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items"`
	Customer      domain.Customer   `json:"customer"`
	Discount      decimal.Decimal   `json:"discount,omitempty"`
	Tax           decimal.Decimal   `json:"tax,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// ToInput converts the request to the service input
func (r *CreateSaleRequest) ToInput() ports.CreateSaleInput {
	input := ports.CreateSaleInput{
		Items:         make([]ports.SaleLineInput, 0, len(r.Items)),
		Customer:      r.Customer,
		Discount:      r.Discount,
		Tax:           r.Tax,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
	for _, item := range r.Items {
		input.Items = append(input.Items, ports.SaleLineInput{
			MedicineID: item.MedicineID,
			Quantity:   item.Quantity,
			Price:      item.Price,
		})
	}
	return input
}

// UpdateSaleRequest represents the metadata-only update body
type UpdateSaleRequest struct {
	PaymentStatus string `json:"payment_status"`
	Notes         string `json:"notes,omitempty"`
}
