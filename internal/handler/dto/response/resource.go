package response

import (
	"time"

	"biblio/internal/usecase/queries"

	"github.com/google/uuid"
)

type ResourceResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Category         string    `json:"category"`
	SourceCollection string    `json:"sourceCollection"`
	ImageURL         string    `json:"imageUrl"`
	InitialCopies    int32     `json:"initialCopies"`
	AvailableCopies  int32     `json:"availableCopies"`
	IsDecrementable  bool      `json:"isDecrementable"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func FromResourceView(rm *queries.ResourceView) *ResourceResponse {
	return &ResourceResponse{
		ID:               rm.ID,
		Title:            rm.Title,
		Category:         rm.Category,
		SourceCollection: rm.SourceCollection,
		ImageURL:         rm.ImageURL,
		InitialCopies:    rm.InitialCopies,
		AvailableCopies:  rm.AvailableCopies,
		IsDecrementable:  rm.IsDecrementable,
		CreatedAt:        rm.CreatedAt,
		UpdatedAt:        rm.UpdatedAt,
	}
}
