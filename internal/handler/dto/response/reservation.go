package response

import (
	"time"

	"biblio/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"userId"`
	ResourceID       uuid.UUID `json:"resourceId"`
	ResourceTitle    string    `json:"resourceTitle"`
	Category         string    `json:"category"`
	SourceCollection string    `json:"sourceCollection"`
	ImageURL         string    `json:"imageUrl"`
	Quantity         int32     `json:"quantity"`
	State            string    `json:"state"`
	ReservedAt       time.Time `json:"reservedAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type CreateReservationResponse struct {
	Reservation     *ReservationResponse `json:"reservation"`
	SlotIndex       int32                `json:"slotIndex"`
	AvailableCopies int32                `json:"availableCopies"`
}

type CancelReservationResponse struct {
	Cancelled bool `json:"cancelled"`
	// AvailableCopies is omitted when no inventory restore applied
	// (no-op cancel or a non-decrementable resource).
	AvailableCopies *int32 `json:"availableCopies,omitempty"`
}

type SlotResponse struct {
	SlotIndex        int32     `json:"slotIndex"`
	ResourceID       uuid.UUID `json:"resourceId"`
	ResourceTitle    string    `json:"resourceTitle"`
	ResourceCategory string    `json:"resourceCategory"`
	SourceCollection string    `json:"sourceCollection"`
	ImageURL         string    `json:"imageUrl"`
	Quantity         int32     `json:"quantity"`
	ReservedAt       time.Time `json:"reservedAt"`
}

func FromReservationView(rm *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:               rm.ID,
		UserID:           rm.UserID,
		ResourceID:       rm.ResourceID,
		ResourceTitle:    rm.ResourceTitle,
		Category:         rm.Category,
		SourceCollection: rm.SourceCollection,
		ImageURL:         rm.ImageURL,
		Quantity:         rm.Quantity,
		State:            rm.State,
		ReservedAt:       rm.ReservedAt,
		UpdatedAt:        rm.UpdatedAt,
	}
}

func FromSlotView(rm *queries.SlotView) *SlotResponse {
	return &SlotResponse{
		SlotIndex:        rm.SlotIndex,
		ResourceID:       rm.ResourceID,
		ResourceTitle:    rm.ResourceTitle,
		ResourceCategory: rm.ResourceCategory,
		SourceCollection: rm.SourceCollection,
		ImageURL:         rm.ImageURL,
		Quantity:         rm.Quantity,
		ReservedAt:       rm.ReservedAt,
	}
}
