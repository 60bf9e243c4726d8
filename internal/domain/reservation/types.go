package reservation

// State is the lifecycle state of a ledger record. Records are never
// deleted; cancellation and rejection are terminal state transitions.
type State string

const (
	StateRequested State = "requested"
	StateApproved  State = "approved"
	StateCancelled State = "cancelled"
	StateRejected  State = "rejected"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StateRequested, StateApproved, StateCancelled, StateRejected:
		return true
	default:
		return false
	}
}

// IsActive reports whether a record in this state still occupies a slot.
func (s State) IsActive() bool {
	return s == StateRequested || s == StateApproved
}

// CanTransitionTo enforces the ledger state machine:
// requested -> approved | rejected | cancelled, approved -> cancelled.
// Terminal states admit no further transitions.
func (s State) CanTransitionTo(next State) bool {
	switch s {
	case StateRequested:
		return next == StateApproved || next == StateRejected || next == StateCancelled
	case StateApproved:
		return next == StateCancelled
	default:
		return false
	}
}

func NewState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return "", ErrInvalidState
	}
	return state, nil
}
