package reservation

import "errors"

var ErrNoFreeSlot = errors.New("no free reservation slot")

// FirstFreeSlot returns the lowest index in 1..maxSlots not present in
// occupied. First-fit keeps indices reused in ascending order over many
// reserve/cancel cycles. Indices above maxSlots in occupied are ignored,
// which lets a lowered quota drain naturally: existing high slots stay
// valid until cleared but are never handed out again.
func FirstFreeSlot(occupied []int32, maxSlots int32) (int32, error) {
	if maxSlots < 1 {
		return 0, ErrNoFreeSlot
	}

	taken := make(map[int32]struct{}, len(occupied))
	for _, idx := range occupied {
		taken[idx] = struct{}{}
	}

	for idx := int32(1); idx <= maxSlots; idx++ {
		if _, ok := taken[idx]; !ok {
			return idx, nil
		}
	}
	return 0, ErrNoFreeSlot
}

// CountActive returns how many of the given indices fall inside the
// quota, i.e. the number of slots counted against the user's limit.
func CountActive(occupied []int32, maxSlots int32) int32 {
	var n int32
	for _, idx := range occupied {
		if idx >= 1 && idx <= maxSlots {
			n++
		}
	}
	return n
}
