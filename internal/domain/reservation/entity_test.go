//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"biblio/internal/domain/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T) *reservation.Record {
	t.Helper()
	rec, err := reservation.NewRecord(
		uuid.New(), uuid.New(),
		"Distributed Systems", "textbook", "engineering", "https://img.example/ds.png",
		1, time.Now(),
	)
	require.NoError(t, err)
	return rec
}

func TestNewRecord(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		userID := uuid.New()
		resourceID := uuid.New()
		now := time.Now()

		rec, err := reservation.NewRecord(userID, resourceID, "Compilers", "textbook", "engineering", "", 2, now)
		require.NoError(t, err)
		require.NotNil(t, rec)

		assert.NotEqual(t, uuid.Nil, rec.ID())
		assert.Equal(t, userID, rec.UserID())
		assert.Equal(t, resourceID, rec.ResourceID())
		assert.Equal(t, reservation.StateRequested, rec.State())
		assert.Equal(t, int32(2), rec.Quantity())
		assert.Equal(t, now, rec.ReservedAt())
		assert.Equal(t, now, rec.UpdatedAt())
		assert.True(t, rec.IsActive())
		assert.True(t, rec.IsOwnedBy(userID))
		assert.False(t, rec.IsOwnedBy(uuid.New()))
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name     string
			title    string
			quantity int32
			errIs    error
		}{
			{name: "empty title", title: "", quantity: 1, errIs: reservation.ErrEmptyTitle},
			{name: "whitespace only title", title: "   ", quantity: 1, errIs: reservation.ErrEmptyTitle},
			{name: "zero quantity", title: "Compilers", quantity: 0, errIs: reservation.ErrInvalidQuantity},
			{name: "negative quantity", title: "Compilers", quantity: -1, errIs: reservation.ErrInvalidQuantity},
			{name: "minimum quantity", title: "Compilers", quantity: 1},
		}

		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				rec, err := reservation.NewRecord(uuid.New(), uuid.New(), c.title, "textbook", "", "", c.quantity, time.Now())

				if c.errIs != nil {
					require.Nil(t, rec)
					require.ErrorIs(t, err, c.errIs)
				} else {
					require.NoError(t, err)
					require.NotNil(t, rec)
				}
			})
		}
	})

	t.Run("UUID uniqueness", func(t *testing.T) {
		rec1 := newTestRecord(t)
		rec2 := newTestRecord(t)
		assert.NotEqual(t, rec1.ID(), rec2.ID())
	})
}

func TestTransitionTo(t *testing.T) {
	cases := []struct {
		name  string
		from  reservation.State
		to    reservation.State
		errIs error
	}{
		{name: "requested to approved", from: reservation.StateRequested, to: reservation.StateApproved},
		{name: "requested to rejected", from: reservation.StateRequested, to: reservation.StateRejected},
		{name: "requested to cancelled", from: reservation.StateRequested, to: reservation.StateCancelled},
		{name: "approved to cancelled", from: reservation.StateApproved, to: reservation.StateCancelled},
		{name: "approved to rejected", from: reservation.StateApproved, to: reservation.StateRejected, errIs: reservation.ErrIllegalTransition},
		{name: "cancelled is terminal", from: reservation.StateCancelled, to: reservation.StateApproved, errIs: reservation.ErrIllegalTransition},
		{name: "rejected is terminal", from: reservation.StateRejected, to: reservation.StateCancelled, errIs: reservation.ErrIllegalTransition},
		{name: "invalid target state", from: reservation.StateRequested, to: reservation.State("archived"), errIs: reservation.ErrInvalidState},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			reservedAt := time.Now().Add(-time.Hour)
			rec := reservation.ReconstructRecord(
				uuid.New(), uuid.New(), uuid.New(),
				"Compilers", "textbook", "", "",
				1, c.from, reservedAt, reservedAt,
			)

			now := time.Now()
			err := rec.TransitionTo(c.to, now)

			if c.errIs != nil {
				require.ErrorIs(t, err, c.errIs)
				assert.Equal(t, c.from, rec.State())
				assert.Equal(t, reservedAt, rec.UpdatedAt())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.to, rec.State())
			assert.Equal(t, now, rec.UpdatedAt())
		})
	}
}

func TestEntryFromRecord(t *testing.T) {
	rec := newTestRecord(t)
	entry := reservation.EntryFromRecord(rec, 3)

	assert.Equal(t, int32(3), entry.SlotIndex)
	assert.Equal(t, rec.ResourceID(), entry.ResourceID)
	assert.Equal(t, rec.ResourceTitle(), entry.ResourceTitle)
	assert.Equal(t, rec.Category(), entry.ResourceCategory)
	assert.Equal(t, rec.SourceCollection(), entry.SourceCollection)
	assert.Equal(t, rec.ImageURL(), entry.ImageURL)
	assert.Equal(t, rec.Quantity(), entry.Quantity)
	assert.Equal(t, rec.ReservedAt(), entry.ReservedAt)
}
