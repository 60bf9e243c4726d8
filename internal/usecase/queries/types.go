package queries

import (
	"time"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type ReservationView struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	ResourceID       uuid.UUID `json:"resource_id"`
	ResourceTitle    string    `json:"resource_title"`
	Category         string    `json:"category"`
	SourceCollection string    `json:"source_collection"`
	ImageURL         string    `json:"image_url"`
	Quantity         int32     `json:"quantity"`
	State            string    `json:"state"`
	ReservedAt       time.Time `json:"reserved_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type SlotView struct {
	SlotIndex        int32     `json:"slot_index"`
	ResourceID       uuid.UUID `json:"resource_id"`
	ResourceTitle    string    `json:"resource_title"`
	ResourceCategory string    `json:"resource_category"`
	SourceCollection string    `json:"source_collection"`
	ImageURL         string    `json:"image_url"`
	Quantity         int32     `json:"quantity"`
	ReservedAt       time.Time `json:"reserved_at"`
}

type ResourceView struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Category         string    `json:"category"`
	SourceCollection string    `json:"source_collection"`
	ImageURL         string    `json:"image_url"`
	InitialCopies    int32     `json:"initial_copies"`
	AvailableCopies  int32     `json:"available_copies"`
	IsDecrementable  bool      `json:"is_decrementable"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type AuthorizedUserView struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}
