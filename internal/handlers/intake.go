// internal/handlers/intake.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/adapters/storage"
	"github.com/medtrack/pharmacy-be/internal/workers"
)

// IntakeHandler handles stock intake uploads. Invoice PDFs go to object
// storage and spreadsheets to a local temp directory; parsing happens in
// background workers.
type IntakeHandler struct {
	asynqClient *asynq.Client
	storage     storage.StorageClient
	tracker     *workers.JobTracker
	logger      *slog.Logger
	maxFileSize int64
	uploadDir   string
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(asynqClient *asynq.Client, st storage.StorageClient, tracker *workers.JobTracker, logger *slog.Logger, maxFileSize int64, uploadDir string) *IntakeHandler {
	return &IntakeHandler{
		asynqClient: asynqClient,
		storage:     st,
		tracker:     tracker,
		logger:      logger.With(slog.String("handler", "intake")),
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
	}
}

// IntakeInvoice handles POST /api/v1/intake/invoice
func (h *IntakeHandler) IntakeInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		respondError(w, h.logger, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	invoiceNumber := r.FormValue("invoice_number")
	if invoiceNumber == "" {
		respondError(w, h.logger, http.StatusBadRequest, "invoice_number is required")
		return
	}
	supplierID, err := uuid.Parse(r.FormValue("supplier_id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "supplier_id is required")
		return
	}
	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "category_id is required")
		return
	}

	jobID := uuid.New().String()
	s3Key := fmt.Sprintf("invoices/%s.pdf", jobID)

	if _, err := h.storage.Upload(ctx, s3Key, file, "application/pdf"); err != nil {
		h.logger.ErrorContext(ctx, "failed to upload invoice",
			slog.String("s3_key", s3Key),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to store invoice")
		return
	}

	payload := workers.InvoiceJobPayload{
		JobID:         jobID,
		S3Key:         s3Key,
		InvoiceNumber: invoiceNumber,
		SupplierID:    supplierID,
		CategoryID:    categoryID,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue intake job")
		return
	}

	info, err := h.asynqClient.Enqueue(asynq.NewTask(workers.TypeInvoicePDF, b),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue invoice task",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue intake job")
		return
	}

	h.tracker.Queued(ctx, jobID)

	h.logger.InfoContext(ctx, "invoice intake queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.String("invoice_number", invoiceNumber))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  workers.JobQueued,
		"message": "Invoice has been queued for processing",
	})
}

// IntakeExcel handles POST /api/v1/intake/excel
func (h *IntakeHandler) IntakeExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" &&
		contentType != "application/vnd.ms-excel" {
		respondError(w, h.logger, http.StatusBadRequest, "Only Excel files are allowed")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		h.logger.ErrorContext(ctx, "failed to create upload directory",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to prepare upload")
		return
	}

	jobID := uuid.New().String()
	tempFile := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", jobID, header.Filename))
	dst, err := os.Create(tempFile)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create temp file",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(tempFile)
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	payload := workers.ExcelJobPayload{
		JobID:    jobID,
		FilePath: tempFile,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		os.Remove(tempFile)
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue intake job")
		return
	}

	info, err := h.asynqClient.Enqueue(asynq.NewTask(workers.TypeExcelIntake, b),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to enqueue excel task",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue intake job")
		return
	}

	h.tracker.Queued(ctx, jobID)

	h.logger.InfoContext(ctx, "excel intake queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.String("filename", header.Filename))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  workers.JobQueued,
		"message": "Spreadsheet has been queued for processing",
	})
}

// IntakeStatus handles GET /api/v1/intake/status/{jobId}
func (h *IntakeHandler) IntakeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobId")

	status, err := h.tracker.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, redis_a.ErrCacheMiss) {
			respondError(w, h.logger, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, status)
}
