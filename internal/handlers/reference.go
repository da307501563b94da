// internal/handlers/reference.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// ReferenceHandler handles category and supplier HTTP requests. These are
// flat reference tables, so the handler talks to the repositories directly.
type ReferenceHandler struct {
	categories ports.CategoryRepository
	suppliers  ports.SupplierRepository
	logger     *slog.Logger
}

// NewReferenceHandler creates a new reference data handler
func NewReferenceHandler(categories ports.CategoryRepository, suppliers ports.SupplierRepository, logger *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		categories: categories,
		suppliers:  suppliers,
		logger:     logger.With(slog.String("handler", "reference")),
	}
}

// ListCategories handles GET /api/v1/categories
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.categories.FindAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list categories",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"count": len(categories),
		"items": categories,
	})
}

// GetCategory handles GET /api/v1/categories/{id}
func (h *ReferenceHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	category, err := h.categories.FindByID(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, category)
}

// CreateCategory handles POST /api/v1/categories
func (h *ReferenceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var category domain.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := category.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	category.ID = uuid.New()
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	if err := h.categories.Save(ctx, &category); err != nil {
		h.logger.ErrorContext(ctx, "failed to create category",
			slog.String("name", category.Name),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/categories/{id}
func (h *ReferenceHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	var category domain.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := category.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	category.ID = id
	category.UpdatedAt = time.Now()
	if err := h.categories.Update(ctx, &category); err != nil {
		h.logger.ErrorContext(ctx, "failed to update category",
			slog.String("category_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}. Medicines keep
// their category reference, it just stops resolving.
func (h *ReferenceHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid category ID format")
		return
	}

	if err := h.categories.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete category",
			slog.String("category_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Category deleted successfully",
		"id":      id.String(),
	})
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *ReferenceHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	suppliers, err := h.suppliers.FindAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list suppliers",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"count": len(suppliers),
		"items": suppliers,
	})
}

// GetSupplier handles GET /api/v1/suppliers/{id}
func (h *ReferenceHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	supplier, err := h.suppliers.FindByID(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, supplier)
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *ReferenceHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := supplier.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	supplier.ID = uuid.New()
	supplier.CreatedAt = time.Now()
	supplier.UpdatedAt = supplier.CreatedAt
	if err := h.suppliers.Save(ctx, &supplier); err != nil {
		h.logger.ErrorContext(ctx, "failed to create supplier",
			slog.String("name", supplier.Name),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, supplier)
}

// UpdateSupplier handles PUT /api/v1/suppliers/{id}
func (h *ReferenceHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	var supplier domain.Supplier
	if err := json.NewDecoder(r.Body).Decode(&supplier); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := supplier.Validate(); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	supplier.ID = id
	supplier.UpdatedAt = time.Now()
	if err := h.suppliers.Update(ctx, &supplier); err != nil {
		h.logger.ErrorContext(ctx, "failed to update supplier",
			slog.String("supplier_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, supplier)
}

// DeleteSupplier handles DELETE /api/v1/suppliers/{id}
func (h *ReferenceHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid supplier ID format")
		return
	}

	if err := h.suppliers.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete supplier",
			slog.String("supplier_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "Supplier deleted successfully",
		"id":      id.String(),
	})
}
