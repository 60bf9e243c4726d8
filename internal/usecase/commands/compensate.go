package commands

import (
	"context"
	"log/slog"
	"time"

	"biblio/internal/infra"
	"biblio/internal/pkg/errs"
	"biblio/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	restoreMaxRetries  = 5
	restoreBackoffBase = 100 * time.Millisecond
)

// restorable reports whether the resource participates in counter
// restores. Callers must read this before mutating anything: a
// transient store failure here fails the whole operation up front
// instead of silently skipping the compensating increment after the
// slot is already freed. A missing resource has no counter to restore.
func restorable(ctx context.Context, uow shared.UnitOfWork, resourceID uuid.UUID) (bool, error) {
	snap, err := uow.CommandReads().ResourceByID(ctx, resourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return false, nil
		}
		return false, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return snap.IsDecrementable, nil
}

// restoreInventory increments the counter back by n, retrying transient
// store failures with backoff. Giving up leaves available_copies
// permanently understated, so exhaustion is logged as a fatal
// reconciliation issue, never swallowed silently.
func restoreInventory(ctx context.Context, inv shared.InventoryCounter, resourceID uuid.UUID, n int32) (int32, error) {
	var lastErr error
	for attempt := 0; attempt <= restoreMaxRetries; attempt++ {
		remaining, err := inv.Increment(ctx, resourceID, n)
		if err == nil {
			return remaining, nil
		}
		lastErr = err

		slog.Warn("retrying inventory restore",
			"resource_id", resourceID,
			"attempt", attempt+1,
			"error", err.Error())

		if attempt == restoreMaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = restoreMaxRetries
		case <-time.After(shared.Backoff(attempt, restoreBackoffBase)):
		}
	}

	slog.Error("fatal reconciliation: inventory restore exhausted retries, available copies understated",
		"resource_id", resourceID,
		"quantity", n,
		"error", lastErr.Error(),
		"stack", errs.ExtractStackLines(lastErr, 10))
	return 0, lastErr
}
