//go:build unit

package reservation_test

import (
	"testing"

	"biblio/internal/domain/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstFreeSlot(t *testing.T) {
	cases := []struct {
		name     string
		occupied []int32
		maxSlots int32
		want     int32
		errIs    error
	}{
		{
			name:     "empty table yields first slot",
			occupied: nil,
			maxSlots: 5,
			want:     1,
		},
		{
			name:     "gap in the middle is filled first",
			occupied: []int32{1, 3, 4},
			maxSlots: 5,
			want:     2,
		},
		{
			name:     "appends after contiguous prefix",
			occupied: []int32{1, 2},
			maxSlots: 5,
			want:     3,
		},
		{
			name:     "full table",
			occupied: []int32{1, 2, 3, 4, 5},
			maxSlots: 5,
			errIs:    reservation.ErrNoFreeSlot,
		},
		{
			name:     "single slot quota",
			occupied: nil,
			maxSlots: 1,
			want:     1,
		},
		{
			name:     "zero quota never allocates",
			occupied: nil,
			maxSlots: 0,
			errIs:    reservation.ErrNoFreeSlot,
		},
		{
			name:     "slots above quota are ignored",
			occupied: []int32{4, 5},
			maxSlots: 3,
			want:     1,
		},
		{
			name:     "lowered quota with legacy high slots still fills low indices",
			occupied: []int32{1, 2, 5},
			maxSlots: 3,
			want:     3,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := reservation.FirstFreeSlot(c.occupied, c.maxSlots)

			if c.errIs != nil {
				require.ErrorIs(t, err, c.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCountActive(t *testing.T) {
	assert.Equal(t, int32(0), reservation.CountActive(nil, 5))
	assert.Equal(t, int32(3), reservation.CountActive([]int32{1, 2, 3}, 5))
	// Slots beyond the quota do not count against the limit.
	assert.Equal(t, int32(2), reservation.CountActive([]int32{1, 2, 4, 5}, 3))
}

func TestFirstFreeSlotReuseCycle(t *testing.T) {
	// Cancelling the lowest slot and reserving again must hand back the
	// same index, not grow the table.
	occupied := []int32{2, 3} // slot 1 freed from {1, 2, 3}
	idx, err := reservation.FirstFreeSlot(occupied, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), idx)
}
