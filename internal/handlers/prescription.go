// internal/handlers/prescription.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// PrescriptionHandler handles prescription HTTP requests
type PrescriptionHandler struct {
	service ports.PrescriptionService
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewPrescriptionHandler creates a new prescription handler
func NewPrescriptionHandler(service ports.PrescriptionService, cache ports.CacheRepository, logger *slog.Logger) *PrescriptionHandler {
	return &PrescriptionHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "prescription")),
	}
}

// CreatePrescription handles POST /api/v1/prescriptions
func (h *PrescriptionHandler) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	prescription := req.ToDomain()
	if err := h.service.CreatePrescription(ctx, prescription); err != nil {
		h.logger.ErrorContext(ctx, "failed to create prescription",
			slog.String("customer", req.Customer.Name),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "prescription created",
		slog.String("prescription_id", prescription.ID.String()),
		slog.String("number", prescription.PrescriptionNumber))

	respondJSON(w, h.logger, http.StatusCreated, prescription)
}

// GetPrescription handles GET /api/v1/prescriptions/{id}
func (h *PrescriptionHandler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid prescription ID format")
		return
	}

	prescription, err := h.service.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get prescription",
			slog.String("prescription_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, prescription)
}

// ListPrescriptions handles GET /api/v1/prescriptions
func (h *PrescriptionHandler) ListPrescriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.PrescriptionListParams{
		Status:    r.URL.Query().Get("status"),
		Priority:  r.URL.Query().Get("priority"),
		Customer:  r.URL.Query().Get("customer"),
		Doctor:    r.URL.Query().Get("doctor"),
		SortOrder: "desc",
		Page:      parsePositiveInt(r.URL.Query().Get("page"), 1),
		PageSize:  parsePositiveInt(r.URL.Query().Get("limit"), 50),
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}
	if order := r.URL.Query().Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list prescriptions",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// UpdatePrescription handles PUT /api/v1/prescriptions/{id}. Dispensing
// progress cannot be set here; it only moves through the dispense endpoint.
func (h *PrescriptionHandler) UpdatePrescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid prescription ID format")
		return
	}

	var req PrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	prescription := req.ToDomain()
	prescription.ID = id
	if err := h.service.UpdateMeta(ctx, prescription); err != nil {
		h.logger.ErrorContext(ctx, "failed to update prescription",
			slog.String("prescription_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "prescription updated",
		slog.String("prescription_id", idStr))

	respondJSON(w, h.logger, http.StatusOK, prescription)
}

// CancelPrescription handles POST /api/v1/prescriptions/{id}/cancel
func (h *PrescriptionHandler) CancelPrescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid prescription ID format")
		return
	}

	prescription, err := h.service.Cancel(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to cancel prescription",
			slog.String("prescription_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "prescription cancelled",
		slog.String("prescription_id", idStr),
		slog.String("number", prescription.PrescriptionNumber))

	respondJSON(w, h.logger, http.StatusOK, prescription)
}

// Dispense handles POST /api/v1/prescriptions/{id}/dispense
func (h *PrescriptionHandler) Dispense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid prescription ID format")
		return
	}

	var req DispenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	prescription, err := h.service.Dispense(ctx, ports.DispenseInput{
		PrescriptionID: id,
		MedicineID:     req.MedicineID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to dispense",
			slog.String("prescription_id", idStr),
			slog.String("medicine_id", req.MedicineID.String()),
			slog.Int("quantity", req.Quantity),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	redis_a.InvalidateMedicineCache(ctx, h.cache, h.logger)

	h.logger.InfoContext(ctx, "prescription dispensed",
		slog.String("prescription_id", idStr),
		slog.String("medicine_id", req.MedicineID.String()),
		slog.Int("quantity", req.Quantity),
		slog.String("status", string(prescription.Status)))

	respondJSON(w, h.logger, http.StatusOK, prescription)
}

// DeletePrescription handles DELETE /api/v1/prescriptions/{id}
func (h *PrescriptionHandler) DeletePrescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid prescription ID format")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete prescription",
			slog.String("prescription_id", idStr),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.logger.InfoContext(ctx, "prescription deleted",
		slog.String("prescription_id", idStr))

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Prescription deleted successfully",
		"id":      idStr,
	})
}

// Request/Response DTOs

// PrescriptionItemRequest is one prescribed line in the request body
type PrescriptionItemRequest struct {
	MedicineID   uuid.UUID `json:"medicine_id"`
	Dosage       string    `json:"dosage"`
	Quantity     int       `json:"quantity"`
	Instructions string    `json:"instructions"`
	Frequency    string    `json:"frequency,omitempty"`
	Duration     string    `json:"duration,omitempty"`
}

// PrescriptionRequest represents the create/update request body.
// Dispensing progress and the generated number are never caller-writable.
type PrescriptionRequest struct {
	Customer   domain.Customer           `json:"customer"`
	Doctor     domain.Doctor             `json:"doctor"`
	Items      []PrescriptionItemRequest `json:"items"`
	Diagnosis  string                    `json:"diagnosis"`
	Notes      string                    `json:"notes,omitempty"`
	Priority   string                    `json:"priority,omitempty"`
	ValidUntil time.Time                 `json:"valid_until"`
}

// ToDomain converts the request to a domain prescription
func (r *PrescriptionRequest) ToDomain() *domain.Prescription {
	items := make([]domain.PrescriptionItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.PrescriptionItem{
			MedicineID:   item.MedicineID,
			Dosage:       item.Dosage,
			Quantity:     item.Quantity,
			Instructions: item.Instructions,
			Frequency:    item.Frequency,
			Duration:     item.Duration,
		})
	}
	return &domain.Prescription{
		Customer:   r.Customer,
		Doctor:     r.Doctor,
		Items:      items,
		Diagnosis:  r.Diagnosis,
		Notes:      r.Notes,
		Priority:   domain.PrescriptionPriority(r.Priority),
		ValidUntil: r.ValidUntil,
	}
}

// DispenseRequest represents one dispensing action against a prescription line
type DispenseRequest struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Quantity   int       `json:"quantity"`
}
