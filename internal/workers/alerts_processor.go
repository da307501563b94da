// internal/workers/alerts_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// AlertsProcessor scans stock levels and records dashboard notifications
type AlertsProcessor struct {
	medicines     ports.MedicineRepository
	notifications ports.NotificationRepository
	cache         ports.CacheRepository
	logger        *slog.Logger
}

// NewAlertsProcessor creates a new alerts processor
func NewAlertsProcessor(medicines ports.MedicineRepository, notifications ports.NotificationRepository, cache ports.CacheRepository, logger *slog.Logger) *AlertsProcessor {
	return &AlertsProcessor{
		medicines:     medicines,
		notifications: notifications,
		cache:         cache,
		logger:        logger.With(slog.String("processor", "alerts")),
	}
}

// ScanStock handles an alerts:scan task
func (p *AlertsProcessor) ScanStock(ctx context.Context, t *asynq.Task) error {
	counts, err := p.medicines.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to count medicines by status: %w", err)
	}

	alerts := []struct {
		status domain.MedicineStatus
		kind   domain.NotificationType
		title  string
		format string
	}{
		{domain.StatusExpired, domain.NotificationExpired,
			"Expired stock", "%d medicine batches are expired or out of stock"},
		{domain.StatusExpiringSoon, domain.NotificationExpiringSoon,
			"Batches expiring soon", "%d medicine batches expire within 30 days"},
		{domain.StatusLowStock, domain.NotificationLowStock,
			"Low stock", "%d medicines are at or below their par level"},
	}

	var created int
	for _, alert := range alerts {
		count := counts[alert.status]
		if count == 0 {
			continue
		}

		n := &domain.Notification{
			Type:    alert.kind,
			Title:   alert.title,
			Message: fmt.Sprintf(alert.format, count),
			Count:   int(count),
		}
		if err := p.notifications.Save(ctx, n); err != nil {
			p.logger.ErrorContext(ctx, "failed to save notification",
				slog.String("type", string(alert.kind)),
				slog.String("error", err.Error()))
			continue
		}
		created++
	}

	if created > 0 {
		if err := p.cache.DeletePattern(ctx, string(redis_a.PrefixAlerts)+":*"); err != nil {
			p.logger.WarnContext(ctx, "failed to invalidate alerts cache",
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "stock scan completed",
		slog.Int("notifications_created", created))

	return nil
}
