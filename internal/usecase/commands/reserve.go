package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"biblio/internal/domain/reservation"
	"biblio/internal/infra"
	"biblio/internal/infra/db"
	"biblio/internal/notifier"
	"biblio/internal/pkg/clock"
	"biblio/internal/pkg/errs"
	"biblio/internal/usecase/queries"
	"biblio/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrResourceNotFound        = errs.New("resource not found")
	ErrUnavailable             = errs.New("no copies available")
	ErrQuotaExceeded           = errs.New("reservation quota exceeded")
	ErrInsufficientCopies      = errs.New("insufficient copies at commit")
	ErrSlotConflict            = errs.New("slot conflict with concurrent session")
	ErrInvalidQuantity         = errs.New("invalid quantity")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

type ReserveResult struct {
	Reservation     *queries.ReservationView
	SlotIndex       int32
	AvailableCopies int32
}

type ReservationCommands interface {
	Reserve(ctx context.Context, userID, resourceID uuid.UUID, quantity int32) (*ReserveResult, error)
}

type reservationCommandsImpl struct {
	uow                shared.UnitOfWork
	inventory          shared.InventoryCounter
	slots              shared.SlotRepository
	settings           shared.SettingsProvider
	changes            *notifier.ChangeNotifier
	reservationQueries queries.ReservationQueries
	clock              clock.Clock
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	inventory shared.InventoryCounter,
	slots shared.SlotRepository,
	settings shared.SettingsProvider,
	changes *notifier.ChangeNotifier,
	reservationQueries queries.ReservationQueries,
	clock clock.Clock,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:                uow,
		inventory:          inventory,
		slots:              slots,
		settings:           settings,
		changes:            changes,
		reservationQueries: reservationQueries,
		clock:              clock,
	}
}

// Reserve claims a free slot, decrements the shared counter for
// decrementable resources, and appends the ledger record. The counter
// mutation is its own atomic statement; the slot + ledger + notification
// batch commits all-or-nothing afterwards, and a failed batch is
// compensated by restoring the counter before the error returns.
func (r *reservationCommandsImpl) Reserve(ctx context.Context, userID, resourceID uuid.UUID, quantity int32) (*ReserveResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	snap, err := r.uow.CommandReads().ResourceByID(ctx, resourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	if snap.IsDecrementable && snap.AvailableCopies < quantity {
		return nil, ErrUnavailable
	}

	maxSlots, err := r.settings.MaxSlotsPerUser(ctx)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	slotIndex, err := r.findFreeSlot(ctx, userID, maxSlots)
	if err != nil {
		return nil, err
	}

	record, err := reservation.NewRecord(
		userID, resourceID,
		snap.Title, snap.Category, snap.SourceCollection, snap.ImageURL,
		quantity, r.clock.Now(),
	)
	if err != nil {
		return nil, err
	}

	// Atomic conditional decrement first; the floor check and the write
	// are a single statement so racing reservations cannot both pass.
	remaining := snap.AvailableCopies
	decremented := false
	if snap.IsDecrementable {
		remaining, err = r.inventory.Decrement(ctx, resourceID, quantity)
		if err != nil {
			if infra.IsKind(err, infra.KindInsufficientCopies) {
				return nil, ErrInsufficientCopies
			}
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrResourceNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		decremented = true
	}

	entry := reservation.EntryFromRecord(record, slotIndex)
	txErr := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if occupyErr := tx.Slots().Occupy(ctx, tx.DB(), userID, entry); occupyErr != nil {
			return occupyErr
		}
		if _, appendErr := tx.Ledger().Append(ctx, tx.DB(), record); appendErr != nil {
			return appendErr
		}
		return r.createNotificationJob(ctx, tx, notifier.KindReservationCreated, record)
	})
	if txErr != nil {
		if decremented {
			if _, restoreErr := restoreInventory(ctx, r.inventory, resourceID, quantity); restoreErr == nil {
				slog.Info("compensated inventory after failed reservation batch",
					"resource_id", resourceID, "user_id", userID)
			}
		}
		if infra.IsKind(txErr, infra.KindDuplicateKey) {
			return nil, ErrSlotConflict
		}
		return nil, errs.Mark(txErr, ErrDatabaseOperationFailed)
	}

	r.publishReserved(ctx, userID, record, slotIndex, remaining, snap.IsDecrementable)

	// The batch is committed at this point. A failing read model must
	// not turn the reservation into a caller-visible error, or the user
	// retries into a second slot and a second decrement.
	view, err := r.reservationQueries.GetByIDSystem(ctx, record.ID())
	if err != nil {
		slog.Warn("serving reservation view from the committed record",
			"reservation_id", record.ID(), "error", err.Error())
		view = viewFromRecord(record)
	}

	return &ReserveResult{
		Reservation:     view,
		SlotIndex:       slotIndex,
		AvailableCopies: remaining,
	}, nil
}

func viewFromRecord(rec *reservation.Record) *queries.ReservationView {
	return &queries.ReservationView{
		ID:               rec.ID(),
		UserID:           rec.UserID(),
		ResourceID:       rec.ResourceID(),
		ResourceTitle:    rec.ResourceTitle(),
		Category:         rec.Category(),
		SourceCollection: rec.SourceCollection(),
		ImageURL:         rec.ImageURL(),
		Quantity:         rec.Quantity(),
		State:            rec.State().String(),
		ReservedAt:       rec.ReservedAt(),
		UpdatedAt:        rec.UpdatedAt(),
	}
}

func (r *reservationCommandsImpl) findFreeSlot(ctx context.Context, userID uuid.UUID, maxSlots int32) (int32, error) {
	var slotIndex int32
	err := r.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		occupied, listErr := r.slots.OccupiedIndices(ctx, dbtx, userID)
		if listErr != nil {
			return listErr
		}
		idx, freeErr := reservation.FirstFreeSlot(occupied, maxSlots)
		if freeErr != nil {
			return freeErr
		}
		slotIndex = idx
		return nil
	})
	if err != nil {
		if errors.Is(err, reservation.ErrNoFreeSlot) {
			return 0, ErrQuotaExceeded
		}
		return 0, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return slotIndex, nil
}

func (r *reservationCommandsImpl) createNotificationJob(ctx context.Context, tx shared.Tx, topic string, record *reservation.Record) error {
	payload, err := json.Marshal(map[string]any{
		"reservation_id": record.ID(),
		"user_id":        record.UserID(),
		"resource_id":    record.ResourceID(),
		"resource_title": record.ResourceTitle(),
		"type":           topic,
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, tx.DB(), "email", topic, payload, r.clock.Now())
}

func (r *reservationCommandsImpl) publishReserved(ctx context.Context, userID uuid.UUID, record *reservation.Record, slotIndex, remaining int32, decremented bool) {
	occupied := r.occupiedCount(ctx, userID)

	r.changes.Publish(notifier.Event{
		Topic: notifier.UserTopic(userID),
		Kind:  notifier.KindReservationCreated,
		Payload: notifier.ReservationCreated{
			UserID:          userID,
			ResourceID:      record.ResourceID(),
			ReservationID:   record.ID(),
			SlotIndex:       slotIndex,
			OccupiedSlots:   occupied,
			AvailableCopies: remaining,
		},
	})

	if decremented {
		r.changes.Publish(notifier.Event{
			Topic: notifier.ResourceTopic(record.ResourceID()),
			Kind:  notifier.KindInventoryChanged,
			Payload: notifier.InventoryChanged{
				ResourceID:      record.ResourceID(),
				AvailableCopies: remaining,
			},
		})
	}
}

func (r *reservationCommandsImpl) occupiedCount(ctx context.Context, userID uuid.UUID) int32 {
	var count int32
	err := r.uow.WithDB(ctx, func(ctx context.Context, dbtx db.DBTX) error {
		occupied, listErr := r.slots.OccupiedIndices(ctx, dbtx, userID)
		if listErr != nil {
			return listErr
		}
		count = int32(len(occupied))
		return nil
	})
	if err != nil {
		slog.Warn("failed to count occupied slots for change event",
			"user_id", userID, "error", err.Error())
	}
	return count
}
