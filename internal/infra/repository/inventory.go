package repository

import (
	"context"
	"log/slog"

	"biblio/internal/infra"
	"biblio/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InventoryRepository owns the shared available-copy counter. Both
// mutations are single server-side statements; the decrement's floor
// check and write are one atomic operation, never a client-side
// read-then-write.
type InventoryRepository struct{}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{}
}

const decrementSQL = `
UPDATE resources
SET available_copies = available_copies - $2, updated_at = now()
WHERE id = $1 AND available_copies >= $2
RETURNING available_copies`

// Decrement atomically subtracts n copies, rejecting with
// KindInsufficientCopies when the counter would go below zero.
func (r *InventoryRepository) Decrement(ctx context.Context, dbtx db.DBTX, resourceID uuid.UUID, n int32) (int32, error) {
	var remaining int32
	err := dbtx.QueryRow(ctx, decrementSQL, resourceID, n).Scan(&remaining)
	if err != nil {
		if err == pgx.ErrNoRows {
			// No row matched: either the resource is gone or the floor
			// check failed. Distinguish so callers can message correctly.
			exists, existsErr := r.exists(ctx, dbtx, resourceID)
			if existsErr != nil {
				return 0, infra.WrapRepoErr("failed to check resource existence", existsErr)
			}
			if !exists {
				return 0, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
			}
			return 0, infra.WrapRepoErr("insufficient available copies", err, infra.KindInsufficientCopies)
		}
		return 0, infra.WrapRepoErr("failed to decrement available copies", err)
	}
	return remaining, nil
}

const incrementSQL = `
UPDATE resources
SET available_copies = available_copies + $2, updated_at = now()
WHERE id = $1
RETURNING available_copies, initial_copies`

// Increment unconditionally restores n copies. Crossing initial_copies
// signals a ledger/data bug; it is logged, not clamped.
func (r *InventoryRepository) Increment(ctx context.Context, dbtx db.DBTX, resourceID uuid.UUID, n int32) (int32, error) {
	var available, initial int32
	err := dbtx.QueryRow(ctx, incrementSQL, resourceID, n).Scan(&available, &initial)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to increment available copies", err)
	}

	if available > initial {
		slog.Error("reconciliation: available copies exceed initial copies",
			"resource_id", resourceID,
			"available_copies", available,
			"initial_copies", initial)
	}
	return available, nil
}

func (r *InventoryRepository) exists(ctx context.Context, dbtx db.DBTX, resourceID uuid.UUID) (bool, error) {
	var exists bool
	err := dbtx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)`, resourceID).Scan(&exists)
	return exists, err
}
