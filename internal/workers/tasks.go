// internal/workers/tasks.go
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// Task type names registered with asynq
const (
	TypeInvoicePDF       = "intake:invoice_pdf"
	TypeExcelIntake      = "intake:excel"
	TypeStatusSweep      = "inventory:status_sweep"
	TypeAlertsScan       = "alerts:scan"
	TypeCleanupOldData   = "cleanup:old_data"
	TypeCleanupTempFiles = "cleanup:temp_files"
)

// InvoiceJobPayload represents the payload for supplier invoice PDF jobs
type InvoiceJobPayload struct {
	JobID         string    `json:"job_id"`
	S3Key         string    `json:"s3_key"`
	InvoiceNumber string    `json:"invoice_number"`
	SupplierID    uuid.UUID `json:"supplier_id"`
	CategoryID    uuid.UUID `json:"category_id"`
}

// ExcelJobPayload represents the payload for spreadsheet intake jobs
type ExcelJobPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
}

// CleanupPayload controls retention for the cleanup task
type CleanupPayload struct {
	NotificationDays int `json:"notification_days"`
	SoftDeleteDays   int `json:"soft_delete_days"`
}

// Job status values reported through the intake status endpoint
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobStatus is the progress record for one intake job. It lives in Redis
// under the intake prefix so the API can serve status lookups without a
// jobs table.
type JobStatus struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Errors    []string  `json:"errors,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const jobStatusTTL = 24 * time.Hour

// JobStatusKey returns the cache key holding a job's status record.
func JobStatusKey(jobID string) string {
	return redis_a.BuildKey(redis_a.PrefixIntake, "job", jobID)
}

// JobTracker persists intake job progress in the cache
type JobTracker struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewJobTracker creates a new job tracker
func NewJobTracker(cache ports.CacheRepository, logger *slog.Logger) *JobTracker {
	return &JobTracker{cache: cache, logger: logger}
}

// Queued records a freshly enqueued job.
func (t *JobTracker) Queued(ctx context.Context, jobID string) {
	now := time.Now()
	t.set(ctx, &JobStatus{
		JobID:     jobID,
		Status:    JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Processing marks the job as picked up by a worker.
func (t *JobTracker) Processing(ctx context.Context, jobID string) {
	t.update(ctx, jobID, func(s *JobStatus) {
		s.Status = JobProcessing
	})
}

// Completed records the final counts for a finished job.
func (t *JobTracker) Completed(ctx context.Context, jobID string, processed, failed int, errs []string) {
	t.update(ctx, jobID, func(s *JobStatus) {
		s.Status = JobCompleted
		s.Processed = processed
		s.Failed = failed
		s.Errors = errs
	})
}

// Failed records a job that could not run to completion.
func (t *JobTracker) Failed(ctx context.Context, jobID string, message string) {
	t.update(ctx, jobID, func(s *JobStatus) {
		s.Status = JobFailed
		s.Message = message
	})
}

// Get returns the status record for a job, or a cache miss error.
func (t *JobTracker) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	if err := t.cache.Get(ctx, JobStatusKey(jobID), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (t *JobTracker) update(ctx context.Context, jobID string, mutate func(*JobStatus)) {
	status, err := t.Get(ctx, jobID)
	if err != nil {
		status = &JobStatus{JobID: jobID, CreatedAt: time.Now()}
	}
	mutate(status)
	status.UpdatedAt = time.Now()
	t.set(ctx, status)
}

func (t *JobTracker) set(ctx context.Context, status *JobStatus) {
	if err := t.cache.SetWithTTL(ctx, JobStatusKey(status.JobID), status, jobStatusTTL); err != nil {
		t.logger.WarnContext(ctx, "failed to persist job status",
			slog.String("job_id", status.JobID),
			slog.String("error", err.Error()))
	}
}
