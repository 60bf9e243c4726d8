//go:build unit || e2e

package builder

import (
	"time"

	reqdto "biblio/internal/handler/dto/request"
	"biblio/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationBuilder struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	ResourceID       uuid.UUID
	ResourceTitle    string
	Category         string
	SourceCollection string
	ImageURL         string
	Quantity         int32
	State            string
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		ResourceID:       uuid.New(),
		ResourceTitle:    "Distributed Systems",
		Category:         "textbook",
		SourceCollection: "engineering",
		ImageURL:         "https://img.example/ds.png",
		Quantity:         1,
		State:            "requested",
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) WithUserID(id uuid.UUID) *ReservationBuilder {
	b.UserID = id
	return b
}

func (b *ReservationBuilder) WithResourceID(id uuid.UUID) *ReservationBuilder {
	b.ResourceID = id
	return b
}

func (b *ReservationBuilder) WithState(state string) *ReservationBuilder {
	b.State = state
	return b
}

func (b *ReservationBuilder) BuildDTO() reqdto.CreateReservationRequest {
	return reqdto.CreateReservationRequest{
		ResourceID: b.ResourceID,
		Quantity:   b.Quantity,
	}
}

func (b *ReservationBuilder) BuildView() *queries.ReservationView {
	now := time.Now()
	return &queries.ReservationView{
		ID:               b.ID,
		UserID:           b.UserID,
		ResourceID:       b.ResourceID,
		ResourceTitle:    b.ResourceTitle,
		Category:         b.Category,
		SourceCollection: b.SourceCollection,
		ImageURL:         b.ImageURL,
		Quantity:         b.Quantity,
		State:            b.State,
		ReservedAt:       now,
		UpdatedAt:        now,
	}
}
