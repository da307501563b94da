// internal/handlers/medicine.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// MedicineHandler handles medicine-related HTTP requests
type MedicineHandler struct {
	service ports.MedicineService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewMedicineHandler creates a new medicine handler
func NewMedicineHandler(service ports.MedicineService, cache ports.CacheRepository, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "medicine")),
	}
}

// GetMedicine handles GET /api/v1/medicines/{id}
func (h *MedicineHandler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid medicine ID format")
		return
	}

	medicine, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get medicine",
			slog.String("medicine_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, medicine)
}

// ListMedicines handles GET /api/v1/medicines
func (h *MedicineHandler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list medicines",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// CreateMedicine handles POST /api/v1/medicines
func (h *MedicineHandler) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	medicine := req.ToDomain()

	if err := h.service.SaveMedicine(ctx, medicine); err != nil {
		h.logger.ErrorContext(ctx, "failed to create medicine",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.invalidateCache(r)

	h.logger.InfoContext(ctx, "medicine created",
		slog.String("medicine_id", medicine.ID.String()),
		slog.String("name", medicine.Name),
		slog.String("status", string(medicine.Status)))

	respondJSON(w, h.logger, http.StatusCreated, medicine)
}

// CreateMedicineBatch handles POST /api/v1/medicines/batch
func (h *MedicineHandler) CreateMedicineBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqs []MedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(reqs) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, "At least one medicine is required")
		return
	}

	medicines := make([]domain.Medicine, 0, len(reqs))
	for i := range reqs {
		medicines = append(medicines, *reqs[i].ToDomain())
	}

	if err := h.service.SaveMedicines(ctx, medicines); err != nil {
		h.logger.ErrorContext(ctx, "failed to create medicine batch",
			slog.Int("count", len(medicines)),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.invalidateCache(r)

	h.logger.InfoContext(ctx, "medicine batch created",
		slog.Int("count", len(medicines)))

	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"created": len(medicines),
	})
}

// UpdateMedicine handles PUT /api/v1/medicines/{id}
func (h *MedicineHandler) UpdateMedicine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid medicine ID format")
		return
	}

	var req MedicineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	medicine := req.ToDomain()

	if err := h.service.UpdateMedicine(ctx, id, medicine); err != nil {
		h.logger.ErrorContext(ctx, "failed to update medicine",
			slog.String("medicine_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.invalidateCache(r)

	h.logger.InfoContext(ctx, "medicine updated",
		slog.String("medicine_id", idStr),
		slog.String("status", string(medicine.Status)))

	respondJSON(w, h.logger, http.StatusOK, medicine)
}

// DeleteMedicine handles DELETE /api/v1/medicines/{id}
func (h *MedicineHandler) DeleteMedicine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid medicine ID format")
		return
	}

	permanent := r.URL.Query().Get("permanent") == "true"

	if err := h.service.DeleteMedicine(ctx, id, permanent); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete medicine",
			slog.String("medicine_id", idStr),
			slog.Bool("permanent", permanent),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.invalidateCache(r)

	h.logger.InfoContext(ctx, "medicine deleted",
		slog.String("medicine_id", idStr),
		slog.Bool("permanent", permanent))

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":   "Medicine deleted successfully",
		"id":        idStr,
		"permanent": permanent,
	})
}

// MedicinesByStatus handles GET /api/v1/medicines/status/{status}
func (h *MedicineHandler) MedicinesByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := domain.MedicineStatus(r.PathValue("status"))

	switch status {
	case domain.StatusInStock, domain.StatusLowStock, domain.StatusExpiringSoon, domain.StatusExpired:
	default:
		respondError(w, h.logger, http.StatusBadRequest, "Unknown status")
		return
	}

	medicines, err := h.service.GetByStatus(ctx, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list medicines by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status": status,
		"count":  len(medicines),
		"items":  medicines,
	})
}

// ExpiringMedicines handles GET /api/v1/medicines/expiring/{days}
func (h *MedicineHandler) ExpiringMedicines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := strconv.Atoi(r.PathValue("days"))
	if err != nil || days < 1 {
		respondError(w, h.logger, http.StatusBadRequest, "Days must be a positive integer")
		return
	}

	medicines, err := h.service.GetExpiring(ctx, days)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list expiring medicines",
			slog.Int("days", days),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"within_days": days,
		"count":       len(medicines),
		"items":       medicines,
	})
}

// parseListParams parses query parameters for listing medicines
func (h *MedicineHandler) parseListParams(r *http.Request) ports.MedicineListParams {
	params := ports.MedicineListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "created_at",
		SortOrder: "desc",
	}

	params.Page = parsePositiveInt(r.URL.Query().Get("page"), 1)
	params.PageSize = parsePositiveInt(r.URL.Query().Get("limit"), 50)
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	params.Search = r.URL.Query().Get("search")
	params.Status = r.URL.Query().Get("status")
	params.Form = r.URL.Query().Get("form")
	params.Batch = r.URL.Query().Get("batch")

	if raw := r.URL.Query().Get("category_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			params.CategoryID = id
		}
	}
	if raw := r.URL.Query().Get("supplier_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			params.SupplierID = id
		}
	}

	if sortBy := r.URL.Query().Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}

func (h *MedicineHandler) invalidateCache(r *http.Request) {
	redis_a.InvalidateMedicineCache(r.Context(), h.cache, h.logger)
}

// Request/Response DTOs

// MedicineRequest represents the request body for creating or updating a
// medicine. Status is intentionally absent: it is derived server-side.
type MedicineRequest struct {
	Name                 string          `json:"name"`
	CategoryID           uuid.UUID       `json:"category_id"`
	SupplierID           uuid.UUID       `json:"supplier_id"`
	Batch                string          `json:"batch"`
	ExpiryDate           time.Time       `json:"expiry_date"`
	Quantity             int             `json:"quantity"`
	Price                decimal.Decimal `json:"price"`
	MRP                  decimal.Decimal `json:"mrp"`
	ParLevel             int             `json:"par_level"`
	Description          string          `json:"description,omitempty"`
	Manufacturer         string          `json:"manufacturer,omitempty"`
	Dosage               string          `json:"dosage,omitempty"`
	Form                 string          `json:"form,omitempty"`
	PrescriptionRequired bool            `json:"prescription_required,omitempty"`
	Barcode              string          `json:"barcode,omitempty"`
	Tags                 []string        `json:"tags,omitempty"`
}

// ToDomain converts the request to a domain model
func (r *MedicineRequest) ToDomain() *domain.Medicine {
	return &domain.Medicine{
		Name:                 r.Name,
		CategoryID:           r.CategoryID,
		SupplierID:           r.SupplierID,
		Batch:                r.Batch,
		ExpiryDate:           r.ExpiryDate,
		Quantity:             r.Quantity,
		Price:                r.Price,
		MRP:                  r.MRP,
		ParLevel:             r.ParLevel,
		Description:          r.Description,
		Manufacturer:         r.Manufacturer,
		Dosage:               r.Dosage,
		Form:                 domain.MedicineForm(r.Form),
		PrescriptionRequired: r.PrescriptionRequired,
		Barcode:              r.Barcode,
		Tags:                 r.Tags,
	}
}
