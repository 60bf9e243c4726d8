package reservation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidState      = errors.New("invalid reservation state")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrEmptyTitle        = errors.New("resource title cannot be empty")
	ErrIllegalTransition = errors.New("illegal reservation state transition")
)

// Record is one entry of a user's reservation ledger. A record in an
// active state (requested or approved) has exactly one matching slot
// entry in the user's slot table.
type Record struct {
	id               uuid.UUID
	userID           uuid.UUID
	resourceID       uuid.UUID
	resourceTitle    string
	category         string
	sourceCollection string
	imageURL         string
	quantity         int32
	state            State
	reservedAt       time.Time
	updatedAt        time.Time
}

func NewRecord(
	userID, resourceID uuid.UUID,
	resourceTitle, category, sourceCollection, imageURL string,
	quantity int32,
	reservedAt time.Time,
) (*Record, error) {
	resourceTitle = strings.TrimSpace(resourceTitle)
	if resourceTitle == "" {
		return nil, ErrEmptyTitle
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return &Record{
		id:               uuid.New(),
		userID:           userID,
		resourceID:       resourceID,
		resourceTitle:    resourceTitle,
		category:         category,
		sourceCollection: sourceCollection,
		imageURL:         imageURL,
		quantity:         quantity,
		state:            StateRequested,
		reservedAt:       reservedAt,
		updatedAt:        reservedAt,
	}, nil
}

func ReconstructRecord(
	id, userID, resourceID uuid.UUID,
	resourceTitle, category, sourceCollection, imageURL string,
	quantity int32,
	state State,
	reservedAt, updatedAt time.Time,
) *Record {
	return &Record{
		id:               id,
		userID:           userID,
		resourceID:       resourceID,
		resourceTitle:    resourceTitle,
		category:         category,
		sourceCollection: sourceCollection,
		imageURL:         imageURL,
		quantity:         quantity,
		state:            state,
		reservedAt:       reservedAt,
		updatedAt:        updatedAt,
	}
}

// TransitionTo moves the record to the next state, enforcing the state
// machine. The caller persists the change.
func (r *Record) TransitionTo(next State, now time.Time) error {
	if !next.IsValid() {
		return ErrInvalidState
	}
	if !r.state.CanTransitionTo(next) {
		return ErrIllegalTransition
	}
	r.state = next
	r.updatedAt = now
	return nil
}

func (r *Record) IsActive() bool {
	return r.state.IsActive()
}

func (r *Record) IsOwnedBy(userID uuid.UUID) bool {
	return r.userID == userID
}

func (r *Record) ID() uuid.UUID            { return r.id }
func (r *Record) UserID() uuid.UUID        { return r.userID }
func (r *Record) ResourceID() uuid.UUID    { return r.resourceID }
func (r *Record) ResourceTitle() string    { return r.resourceTitle }
func (r *Record) Category() string         { return r.category }
func (r *Record) SourceCollection() string { return r.sourceCollection }
func (r *Record) ImageURL() string         { return r.imageURL }
func (r *Record) Quantity() int32          { return r.quantity }
func (r *Record) State() State             { return r.state }
func (r *Record) ReservedAt() time.Time    { return r.reservedAt }
func (r *Record) UpdatedAt() time.Time     { return r.updatedAt }

// SlotEntry is the compact denormalized copy of an active reservation
// held in one of the user's numbered slots.
type SlotEntry struct {
	SlotIndex        int32
	ResourceID       uuid.UUID
	ResourceTitle    string
	ResourceCategory string
	SourceCollection string
	ImageURL         string
	Quantity         int32
	ReservedAt       time.Time
}

// EntryFromRecord builds the slot entry that mirrors a ledger record at
// the given slot index.
func EntryFromRecord(rec *Record, slotIndex int32) SlotEntry {
	return SlotEntry{
		SlotIndex:        slotIndex,
		ResourceID:       rec.ResourceID(),
		ResourceTitle:    rec.ResourceTitle(),
		ResourceCategory: rec.Category(),
		SourceCollection: rec.SourceCollection(),
		ImageURL:         rec.ImageURL(),
		Quantity:         rec.Quantity(),
		ReservedAt:       rec.ReservedAt(),
	}
}
