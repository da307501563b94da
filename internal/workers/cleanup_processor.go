// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/medtrack/pharmacy-be/internal/adapters/db"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
	"github.com/medtrack/pharmacy-be/internal/pkg/config"
)

// CleanupProcessor handles retention tasks
type CleanupProcessor struct {
	db            *db.Database
	notifications ports.NotificationRepository
	config        *config.Config
	logger        *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(database *db.Database, notifications ports.NotificationRepository, cfg *config.Config, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		db:            database,
		notifications: notifications,
		config:        cfg,
		logger:        logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupOldData purges read notifications and long soft-deleted medicines
func (p *CleanupProcessor) CleanupOldData(ctx context.Context, t *asynq.Task) error {
	payload := CleanupPayload{
		NotificationDays: 30,
		SoftDeleteDays:   90,
	}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	cutoff := time.Now().AddDate(0, 0, -payload.NotificationDays)
	notificationsDeleted, err := p.notifications.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup notifications: %w", err)
	}

	query := `DELETE FROM medicines WHERE deleted_at IS NOT NULL AND deleted_at < NOW() - make_interval(days => $1)`
	result, err := p.db.Exec(ctx, query, payload.SoftDeleteDays)
	if err != nil {
		return fmt.Errorf("failed to purge soft-deleted medicines: %w", err)
	}

	p.logger.InfoContext(ctx, "old data cleaned up",
		slog.Int64("notifications_deleted", notificationsDeleted),
		slog.Int64("medicines_purged", result.RowsAffected()))

	return nil
}

// CleanupTempFiles removes stale intake uploads
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, t *asynq.Task) error {
	tempDir := p.config.FileProcessing.TempDir
	maxAge := 24 * time.Hour

	var deletedCount int
	err := filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete temp file",
					slog.String("file", path),
					slog.String("error", err.Error()))
			} else {
				deletedCount++
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", deletedCount))

	return nil
}
