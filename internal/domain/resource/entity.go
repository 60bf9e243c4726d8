package resource

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle            = errors.New("resource title cannot be empty")
	ErrTitleTooLong          = errors.New("resource title is too long (max 255 characters)")
	ErrNegativeCopies        = errors.New("copy counts cannot be negative")
	ErrAvailableExceedsTotal = errors.New("available copies cannot exceed initial copies")
)

const MaxTitleLength = 255

// Resource is a catalog item: a circulating book or a consult-only thesis.
// Circulating books are decrementable, meaning a reservation consumes one of
// a finite pool of copies. Theses are earmarked for consultation without
// limiting concurrent access, so their counters are never touched.
type Resource struct {
	id               uuid.UUID
	title            string
	category         string
	sourceCollection string
	imageURL         string
	initialCopies    int32
	availableCopies  int32
	isDecrementable  bool
	createdAt        time.Time
	updatedAt        time.Time
}

func NewResource(
	id uuid.UUID,
	title, category, sourceCollection, imageURL string,
	initialCopies, availableCopies int32,
	isDecrementable bool,
) (*Resource, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if initialCopies < 0 || availableCopies < 0 {
		return nil, ErrNegativeCopies
	}
	if availableCopies > initialCopies {
		return nil, ErrAvailableExceedsTotal
	}

	return &Resource{
		id:               id,
		title:            title,
		category:         category,
		sourceCollection: sourceCollection,
		imageURL:         imageURL,
		initialCopies:    initialCopies,
		availableCopies:  availableCopies,
		isDecrementable:  isDecrementable,
	}, nil
}

// CanSatisfy reports whether a reservation of n copies is feasible right
// now. Non-decrementable resources always satisfy; the check on the
// counter here is only the fast pre-check, the authoritative floor is
// enforced by the atomic decrement in the store.
func (r *Resource) CanSatisfy(n int32) bool {
	if !r.isDecrementable {
		return true
	}
	return r.availableCopies >= n
}

func (r *Resource) ID() uuid.UUID            { return r.id }
func (r *Resource) Title() string            { return r.title }
func (r *Resource) Category() string         { return r.category }
func (r *Resource) SourceCollection() string { return r.sourceCollection }
func (r *Resource) ImageURL() string         { return r.imageURL }
func (r *Resource) InitialCopies() int32     { return r.initialCopies }
func (r *Resource) AvailableCopies() int32   { return r.availableCopies }
func (r *Resource) IsDecrementable() bool    { return r.isDecrementable }
func (r *Resource) CreatedAt() time.Time     { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time     { return r.updatedAt }
