// internal/workers/sweep_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/medtrack/pharmacy-be/internal/adapters/redis_adapter"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// SweepProcessor re-derives stored medicine statuses on a schedule. Stock
// mutations refresh status inline; this sweep catches pure time-passage
// transitions like a batch crossing into the expiring-soon window overnight.
type SweepProcessor struct {
	medicines ports.MedicineRepository
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewSweepProcessor creates a new status sweep processor
func NewSweepProcessor(medicines ports.MedicineRepository, cache ports.CacheRepository, logger *slog.Logger) *SweepProcessor {
	return &SweepProcessor{
		medicines: medicines,
		cache:     cache,
		logger:    logger.With(slog.String("processor", "sweep")),
	}
}

// RefreshStatuses handles an inventory:status_sweep task
func (p *SweepProcessor) RefreshStatuses(ctx context.Context, t *asynq.Task) error {
	changed, err := p.medicines.RefreshStatuses(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to refresh statuses: %w", err)
	}

	if changed > 0 {
		redis_a.InvalidateMedicineCache(ctx, p.cache, p.logger)
	}

	p.logger.InfoContext(ctx, "status sweep completed",
		slog.Int64("changed", changed))

	return nil
}
