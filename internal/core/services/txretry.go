// internal/core/services/txretry.go
package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/medtrack/pharmacy-be/internal/core/domain"
	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// maxTxAttempts bounds transparent retries of conflicting stock transactions.
const maxTxAttempts = 3

// Postgres SQLSTATE codes that mark a retryable transaction conflict.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// isRetryableConflict reports whether err is a transient conflict between
// concurrent transactions rather than a real failure.
func isRetryableConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
}

// runStockTx executes fn inside a transaction, retrying conflicts up to
// maxTxAttempts. Exhaustion surfaces domain.ErrConcurrencyConflict; every
// other failure propagates unchanged after rollback.
func runStockTx(ctx context.Context, txm ports.TransactionManager, fn func(ctx context.Context, tx ports.InventoryTx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = txm.WithinTx(ctx, fn)
		if err == nil || !isRetryableConflict(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return domain.ErrConcurrencyConflict
}
