//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"biblio/internal/domain/reservation"
	"biblio/internal/notifier"
	"biblio/internal/pkg/clock"
	"biblio/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reserveFixture struct {
	store     *fakeStore
	inventory *fakeInventory
	changes   *notifier.ChangeNotifier
	commands  commands.ReservationCommands
}

func newReserveFixture() *reserveFixture {
	store := newFakeStore()
	inventory := &fakeInventory{store: store}
	changes := notifier.New()
	uow := &fakeUoW{store: store}

	return &reserveFixture{
		store:     store,
		inventory: inventory,
		changes:   changes,
		commands: commands.NewReservationCommands(
			uow,
			inventory,
			&fakeSlots{store: store},
			&fakeSettings{store: store},
			changes,
			&fakeReservationQueries{store: store},
			clock.NewMockClock(time.Now()),
		),
	}
}

func TestReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("success claims first slot and decrements inventory", func(t *testing.T) {
		f := newReserveFixture()
		userID := uuid.New()
		resourceID := f.store.addResource("Distributed Systems", 3, true)

		result, err := f.commands.Reserve(ctx, userID, resourceID, 1)
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.Equal(t, int32(1), result.SlotIndex)
		assert.Equal(t, int32(2), result.AvailableCopies)
		require.NotNil(t, result.Reservation)
		assert.Equal(t, "requested", result.Reservation.State)
		assert.Equal(t, "Distributed Systems", result.Reservation.ResourceTitle)

		assert.Equal(t, int32(2), f.store.copies[resourceID])
		assert.Len(t, f.store.slots[userID], 1)
		assert.Len(t, f.store.records, 1)
		assert.Equal(t, 1, f.store.jobs)
	})

	t.Run("slots fill first-fit across reservations", func(t *testing.T) {
		f := newReserveFixture()
		userID := uuid.New()

		for want := int32(1); want <= 3; want++ {
			resourceID := f.store.addResource("Book", 1, true)
			result, err := f.commands.Reserve(ctx, userID, resourceID, 1)
			require.NoError(t, err)
			assert.Equal(t, want, result.SlotIndex)
		}
	})

	t.Run("invalid quantity", func(t *testing.T) {
		f := newReserveFixture()
		resourceID := f.store.addResource("Book", 1, true)

		_, err := f.commands.Reserve(ctx, uuid.New(), resourceID, 0)
		require.ErrorIs(t, err, commands.ErrInvalidQuantity)
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newReserveFixture()

		_, err := f.commands.Reserve(ctx, uuid.New(), uuid.New(), 1)
		require.ErrorIs(t, err, commands.ErrResourceNotFound)
	})

	t.Run("no copies available", func(t *testing.T) {
		f := newReserveFixture()
		resourceID := f.store.addResource("Book", 0, true)

		_, err := f.commands.Reserve(ctx, uuid.New(), resourceID, 1)
		require.ErrorIs(t, err, commands.ErrUnavailable)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		f := newReserveFixture()
		f.store.maxSlots = 2
		userID := uuid.New()

		for range 2 {
			resourceID := f.store.addResource("Book", 1, true)
			_, err := f.commands.Reserve(ctx, userID, resourceID, 1)
			require.NoError(t, err)
		}

		resourceID := f.store.addResource("Book", 1, true)
		_, err := f.commands.Reserve(ctx, userID, resourceID, 1)
		require.ErrorIs(t, err, commands.ErrQuotaExceeded)
		// The quota check precedes the decrement, so no copy was consumed.
		assert.Equal(t, int32(1), f.store.copies[resourceID])
	})

	t.Run("non-decrementable resource skips the counter", func(t *testing.T) {
		f := newReserveFixture()
		userID := uuid.New()
		resourceID := f.store.addResource("Thesis Archive", 1, false)

		// Many users reserve the same reference item; the counter never moves.
		result, err := f.commands.Reserve(ctx, userID, resourceID, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(1), result.AvailableCopies)

		other, err := f.commands.Reserve(ctx, uuid.New(), resourceID, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(1), other.AvailableCopies)
		assert.Equal(t, int32(1), f.store.copies[resourceID])
	})

	t.Run("failed batch compensates the decrement", func(t *testing.T) {
		f := newReserveFixture()
		userID := uuid.New()
		resourceID := f.store.addResource("Book", 2, true)
		f.store.failBatches = 1

		_, err := f.commands.Reserve(ctx, userID, resourceID, 1)
		require.Error(t, err)

		// Counter restored, nothing persisted.
		assert.Equal(t, int32(2), f.store.copies[resourceID])
		assert.Empty(t, f.store.slots[userID])
		assert.Empty(t, f.store.records)
		assert.Equal(t, 0, f.store.jobs)
		assert.Equal(t, 1, f.inventory.increments)
	})

	t.Run("committed reservation survives a failed view read-back", func(t *testing.T) {
		f := newReserveFixture()
		userID := uuid.New()
		resourceID := f.store.addResource("Book", 1, true)

		// The read model fails after the batch committed. The caller must
		// still see success, or a retry would claim a second slot and a
		// second copy.
		f.store.failViewReads = 1

		result, err := f.commands.Reserve(ctx, userID, resourceID, 1)
		require.NoError(t, err)
		require.NotNil(t, result.Reservation)
		assert.Equal(t, resourceID, result.Reservation.ResourceID)
		assert.Equal(t, "requested", result.Reservation.State)
		assert.Equal(t, "Book", result.Reservation.ResourceTitle)

		// Exactly one commit happened.
		assert.Equal(t, int32(0), f.store.copies[resourceID])
		assert.Len(t, f.store.slots[userID], 1)
		assert.Len(t, f.store.records, 1)
	})

	t.Run("publishes change events", func(t *testing.T) {
		f := newReserveFixture()
		userID := uuid.New()
		resourceID := f.store.addResource("Book", 2, true)

		userSub := f.changes.Subscribe(notifier.UserTopic(userID))
		defer userSub.Close()
		resourceSub := f.changes.Subscribe(notifier.ResourceTopic(resourceID))
		defer resourceSub.Close()

		result, err := f.commands.Reserve(ctx, userID, resourceID, 1)
		require.NoError(t, err)

		created := <-userSub.C
		assert.Equal(t, notifier.KindReservationCreated, created.Kind)
		payload, ok := created.Payload.(notifier.ReservationCreated)
		require.True(t, ok)
		assert.Equal(t, result.SlotIndex, payload.SlotIndex)
		assert.Equal(t, int32(1), payload.OccupiedSlots)
		assert.Equal(t, int32(1), payload.AvailableCopies)

		inv := <-resourceSub.C
		assert.Equal(t, notifier.KindInventoryChanged, inv.Kind)
	})
}

func TestReserveConcurrency(t *testing.T) {
	ctx := context.Background()

	t.Run("racing users never oversell", func(t *testing.T) {
		f := newReserveFixture()
		const copies = 3
		const racers = 10
		resourceID := f.store.addResource("Book", copies, true)

		var wg sync.WaitGroup
		errCh := make(chan error, racers)
		for range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.commands.Reserve(ctx, uuid.New(), resourceID, 1)
				errCh <- err
			}()
		}
		wg.Wait()
		close(errCh)

		successes := 0
		for err := range errCh {
			if err == nil {
				successes++
				continue
			}
			// Losers must see an availability error, never a partial write.
			if !errors.Is(err, commands.ErrUnavailable) && !errors.Is(err, commands.ErrInsufficientCopies) {
				t.Fatalf("unexpected reservation error: %v", err)
			}
		}

		assert.Equal(t, copies, successes)
		assert.Equal(t, int32(0), f.store.copies[resourceID])
		assert.Len(t, f.store.records, copies)
	})

	t.Run("racing sessions of one user respect the quota", func(t *testing.T) {
		f := newReserveFixture()
		f.store.maxSlots = 2
		userID := uuid.New()

		const racers = 6
		resourceIDs := make([]uuid.UUID, racers)
		for i := range resourceIDs {
			resourceIDs[i] = f.store.addResource("Book", 1, false)
		}

		var wg sync.WaitGroup
		errCh := make(chan error, racers)
		for i := range racers {
			wg.Add(1)
			go func(resourceID uuid.UUID) {
				defer wg.Done()
				_, err := f.commands.Reserve(ctx, userID, resourceID, 1)
				errCh <- err
			}(resourceIDs[i])
		}
		wg.Wait()
		close(errCh)

		successes := 0
		for err := range errCh {
			if err == nil {
				successes++
			}
		}

		// Losers fail on the quota scan or on the slot unique constraint,
		// but the user can never hold more slots than the quota.
		assert.LessOrEqual(t, successes, 2)
		assert.LessOrEqual(t, len(f.store.slots[userID]), 2)
		for idx := range f.store.slots[userID] {
			assert.LessOrEqual(t, idx, int32(2))
		}
	})
}

func TestReserveCancelRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	inventory := &fakeInventory{store: store}
	changes := notifier.New()
	uow := &fakeUoW{store: store}
	mockClock := clock.NewMockClock(time.Now())

	reserve := commands.NewReservationCommands(
		uow, inventory, &fakeSlots{store: store}, &fakeSettings{store: store},
		changes, &fakeReservationQueries{store: store}, mockClock,
	)
	cancel := commands.NewCancellationCommands(
		uow, inventory, &fakeSlots{store: store}, &fakeLedger{store: store},
		changes, mockClock,
	)

	userID := uuid.New()
	resourceID := store.addResource("Book", 1, true)

	first, err := reserve.Reserve(ctx, userID, resourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), first.SlotIndex)
	assert.Equal(t, int32(0), store.copies[resourceID])

	cancelled, err := cancel.Cancel(ctx, userID, resourceID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, int32(1), store.copies[resourceID])

	// The freed slot and copy are reusable immediately.
	second, err := reserve.Reserve(ctx, userID, resourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), second.SlotIndex)
	assert.Equal(t, int32(0), store.copies[resourceID])

	// The ledger keeps both records; one cancelled, one requested.
	states := map[reservation.State]int{}
	for _, rec := range store.records {
		states[rec.State()]++
	}
	assert.Equal(t, 1, states[reservation.StateCancelled])
	assert.Equal(t, 1, states[reservation.StateRequested])
}
