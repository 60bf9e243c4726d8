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

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrIllegalTransition   = errs.New("illegal reservation state transition")
)

type ApprovalCommands interface {
	Approve(ctx context.Context, reservationID uuid.UUID) error
	Reject(ctx context.Context, reservationID uuid.UUID) error
}

type approvalCommandsImpl struct {
	uow       shared.UnitOfWork
	inventory shared.InventoryCounter
	slots     shared.SlotRepository
	ledger    shared.LedgerRepository
	changes   *notifier.ChangeNotifier
	clock     clock.Clock
}

func NewApprovalCommands(
	uow shared.UnitOfWork,
	inventory shared.InventoryCounter,
	slots shared.SlotRepository,
	ledger shared.LedgerRepository,
	changes *notifier.ChangeNotifier,
	clock clock.Clock,
) ApprovalCommands {
	return &approvalCommandsImpl{
		uow:       uow,
		inventory: inventory,
		slots:     slots,
		ledger:    ledger,
		changes:   changes,
		clock:     clock,
	}
}

// Approve confirms a requested reservation. The slot stays occupied and
// inventory is untouched; only the ledger state moves.
func (a *approvalCommandsImpl) Approve(ctx context.Context, reservationID uuid.UUID) error {
	record, err := a.loadRecord(ctx, reservationID)
	if err != nil {
		return err
	}

	now := a.clock.Now()
	if transErr := record.TransitionTo(reservation.StateApproved, now); transErr != nil {
		return ErrIllegalTransition
	}

	txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Ledger().UpdateState(ctx, tx.DB(), record.ID(), reservation.StateApproved, now)
	})
	if txErr != nil {
		return errs.Mark(txErr, ErrDatabaseOperationFailed)
	}

	a.publishStateChange(record, reservation.StateApproved)
	return nil
}

// Reject refuses a requested reservation: the ledger record moves to
// rejected, the slot is freed, and decrementable inventory is restored,
// mirroring cancellation.
func (a *approvalCommandsImpl) Reject(ctx context.Context, reservationID uuid.UUID) error {
	record, err := a.loadRecord(ctx, reservationID)
	if err != nil {
		return err
	}

	// Read before mutating: if the store cannot answer whether the
	// counter needs restoring, fail the rejection now rather than free
	// the slot and lose the compensating increment.
	decrementable, err := restorable(ctx, a.uow, record.ResourceID())
	if err != nil {
		return err
	}

	now := a.clock.Now()
	if transErr := record.TransitionTo(reservation.StateRejected, now); transErr != nil {
		return ErrIllegalTransition
	}

	txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entry, findErr := tx.Slots().FindByResource(ctx, tx.DB(), record.UserID(), record.ResourceID())
		if findErr != nil {
			if !infra.IsKind(findErr, infra.KindNotFound) {
				return findErr
			}
			slog.Error("rejected reservation has no slot entry",
				"reservation_id", record.ID(), "user_id", record.UserID())
		} else if clearErr := tx.Slots().Clear(ctx, tx.DB(), record.UserID(), entry.SlotIndex); clearErr != nil {
			return clearErr
		}
		return tx.Ledger().UpdateState(ctx, tx.DB(), record.ID(), reservation.StateRejected, now)
	})
	if txErr != nil {
		return errs.Mark(txErr, ErrDatabaseOperationFailed)
	}

	if decrementable {
		if remaining, restoreErr := restoreInventory(ctx, a.inventory, record.ResourceID(), record.Quantity()); restoreErr == nil {
			a.changes.Publish(notifier.Event{
				Topic: notifier.ResourceTopic(record.ResourceID()),
				Kind:  notifier.KindInventoryChanged,
				Payload: notifier.InventoryChanged{
					ResourceID:      record.ResourceID(),
					AvailableCopies: remaining,
				},
			})
		}
	}

	a.publishStateChange(record, reservation.StateRejected)
	return nil
}

func (a *approvalCommandsImpl) loadRecord(ctx context.Context, reservationID uuid.UUID) (*reservation.Record, error) {
	var record *reservation.Record
	err := a.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		rec, findErr := a.ledger.FindByID(ctx, dbtx, reservationID)
		if findErr != nil {
			return findErr
		}
		record = rec
		return nil
	})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return record, nil
}

func (a *approvalCommandsImpl) publishStateChange(record *reservation.Record, state reservation.State) {
	a.changes.Publish(notifier.Event{
		Topic: notifier.UserTopic(record.UserID()),
		Kind:  notifier.KindReservationState,
		Payload: notifier.ReservationStateChanged{
			UserID:        record.UserID(),
			ResourceID:    record.ResourceID(),
			ReservationID: record.ID(),
			State:         state.String(),
		},
	})
}
