package commands

import (
	"context"
	"log/slog"

	"biblio/internal/domain/reservation"
	"biblio/internal/infra"
	"biblio/internal/infra/db"
	"biblio/internal/notifier"
	"biblio/internal/pkg/clock"
	"biblio/internal/pkg/errs"
	"biblio/internal/usecase/shared"

	"github.com/google/uuid"
)

type CancelResult struct {
	// Cancelled is false when there was nothing to cancel: per the
	// idempotence rule a missing or already-cancelled target is a
	// successful no-op, not an error.
	Cancelled bool
	// AvailableCopies is nil when no counter restore applies: no-op
	// cancellations, non-decrementable resources, or a restore that
	// could not be completed. A real post-restore count is never
	// conflated with zero.
	AvailableCopies *int32
}

type CancellationCommands interface {
	Cancel(ctx context.Context, userID, resourceID uuid.UUID) (*CancelResult, error)
}

type cancellationCommandsImpl struct {
	uow       shared.UnitOfWork
	inventory shared.InventoryCounter
	slots     shared.SlotRepository
	ledger    shared.LedgerRepository
	changes   *notifier.ChangeNotifier
	clock     clock.Clock
}

func NewCancellationCommands(
	uow shared.UnitOfWork,
	inventory shared.InventoryCounter,
	slots shared.SlotRepository,
	ledger shared.LedgerRepository,
	changes *notifier.ChangeNotifier,
	clock clock.Clock,
) CancellationCommands {
	return &cancellationCommandsImpl{
		uow:       uow,
		inventory: inventory,
		slots:     slots,
		ledger:    ledger,
		changes:   changes,
		clock:     clock,
	}
}

// Cancel reverses a reservation: frees the slot, marks the ledger record
// cancelled, and restores inventory for decrementable resources. Double
// clicks and replayed requests land on the no-op path.
func (c *cancellationCommandsImpl) Cancel(ctx context.Context, userID, resourceID uuid.UUID) (*CancelResult, error) {
	entry, record, err := c.findTarget(ctx, userID, resourceID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &CancelResult{Cancelled: false}, nil
	}

	// Decide up front whether the counter must be restored. Nothing is
	// mutated yet, so a failed read aborts the cancellation cleanly and
	// the caller can retry instead of losing the copy.
	decrementable, err := restorable(ctx, c.uow, resourceID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if record != nil {
		if transErr := record.TransitionTo(reservation.StateCancelled, now); transErr != nil {
			return nil, errs.Mark(transErr, ErrDatabaseOperationFailed)
		}
	}

	txErr := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if clearErr := tx.Slots().Clear(ctx, tx.DB(), userID, entry.SlotIndex); clearErr != nil {
			return clearErr
		}
		if record != nil {
			if stateErr := tx.Ledger().UpdateState(ctx, tx.DB(), record.ID(), reservation.StateCancelled, now); stateErr != nil {
				return stateErr
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, errs.Mark(txErr, ErrDatabaseOperationFailed)
	}

	// The slot is already freed; a failed restore is a reconciliation
	// problem handled inside restoreInventory, not a reason to surface
	// failure for an otherwise-complete cancellation.
	var remaining *int32
	if decrementable {
		if restored, restoreErr := restoreInventory(ctx, c.inventory, resourceID, entry.Quantity); restoreErr == nil {
			remaining = &restored
		}
	}

	c.publishCancelled(userID, resourceID, record, remaining)

	return &CancelResult{Cancelled: true, AvailableCopies: remaining}, nil
}

// findTarget scans the user's slots for the resource and loads the
// matching active ledger record. A slot without an active record is a
// broken pair; it is logged and still cleared so the user is not stuck.
func (c *cancellationCommandsImpl) findTarget(ctx context.Context, userID, resourceID uuid.UUID) (*reservation.SlotEntry, *reservation.Record, error) {
	var (
		entry  *reservation.SlotEntry
		record *reservation.Record
	)
	err := c.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		found, findErr := c.slots.FindByResource(ctx, dbtx, userID, resourceID)
		if findErr != nil {
			if infra.IsKind(findErr, infra.KindNotFound) {
				return nil
			}
			return findErr
		}
		entry = found

		rec, recErr := c.ledger.FindActiveByResource(ctx, dbtx, userID, resourceID)
		if recErr != nil {
			if infra.IsKind(recErr, infra.KindNotFound) {
				slog.Error("slot entry has no active ledger record",
					"user_id", userID,
					"resource_id", resourceID,
					"slot_index", found.SlotIndex)
				return nil
			}
			return recErr
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return entry, record, nil
}

func (c *cancellationCommandsImpl) publishCancelled(userID, resourceID uuid.UUID, record *reservation.Record, remaining *int32) {
	var recordID uuid.UUID
	if record != nil {
		recordID = record.ID()
	}

	var copies int32
	if remaining != nil {
		copies = *remaining
	}

	c.changes.Publish(notifier.Event{
		Topic: notifier.UserTopic(userID),
		Kind:  notifier.KindReservationCancelled,
		Payload: notifier.ReservationCancelled{
			UserID:          userID,
			ResourceID:      resourceID,
			ReservationID:   recordID,
			AvailableCopies: copies,
		},
	})

	if remaining != nil {
		c.changes.Publish(notifier.Event{
			Topic: notifier.ResourceTopic(resourceID),
			Kind:  notifier.KindInventoryChanged,
			Payload: notifier.InventoryChanged{
				ResourceID:      resourceID,
				AvailableCopies: *remaining,
			},
		})
	}
}
