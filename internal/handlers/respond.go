// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]string{"error": message})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses:
// validation, insufficient stock and exceeds-prescribed are 400, missing
// entities are 404, concurrency conflicts and cancelled prescriptions are
// 409, and anything else is a 500 with a generic body.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		is *domain.InsufficientStockError
		ep *domain.ExceedsPrescribedError
	)

	switch {
	case errors.As(err, &ve), errors.As(err, &is), errors.As(err, &ep):
		respondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.As(err, &nf):
		respondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		respondError(w, logger, http.StatusConflict, "The record was modified concurrently, please retry")
	case errors.Is(err, domain.ErrPrescriptionCancelled):
		respondError(w, logger, http.StatusConflict, err.Error())
	default:
		respondError(w, logger, http.StatusInternalServerError, "Internal server error")
	}
}

// parsePositiveInt reads a positive integer query value with a fallback
func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
