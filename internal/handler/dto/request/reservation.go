package request

import (
	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ResourceID uuid.UUID `json:"resourceId" binding:"required"`
	Quantity   int32     `json:"quantity" binding:"omitempty,min=1"`
}

// EffectiveQuantity defaults an omitted quantity to a single copy.
func (r *CreateReservationRequest) EffectiveQuantity() int32 {
	if r.Quantity < 1 {
		return 1
	}
	return r.Quantity
}

type UpdateReservationStateRequest struct {
	State string `json:"state" binding:"required,oneof=approved rejected"`
}
