package queries

import (
	"context"

	"biblio/internal/infra/db"
	"biblio/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrForbidden = errs.New("reservation does not belong to caller")

type ReservationViewRepo interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ReservationView, error)
	FindByUserID(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*ReservationView, error)
	FindSlotsByUserID(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*SlotView, error)
}

type ReservationQueries interface {
	// GetByID enforces ownership: only the owner sees the record.
	GetByID(ctx context.Context, actor uuid.UUID, id uuid.UUID) (*ReservationView, error)
	// GetByIDSystem bypasses the ownership check for internal callers.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationView, error)
	ListSlots(ctx context.Context, userID uuid.UUID) ([]*SlotView, error)
}

type reservationQueriesImpl struct {
	repo ReservationViewRepo
	dbtx db.DBTX
}

func NewReservationQueries(repo ReservationViewRepo, dbtx db.DBTX) ReservationQueries {
	return &reservationQueriesImpl{repo: repo, dbtx: dbtx}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, actor uuid.UUID, id uuid.UUID) (*ReservationView, error) {
	view, err := q.repo.FindByID(ctx, q.dbtx, id)
	if err != nil {
		return nil, err
	}
	if view.UserID != actor {
		return nil, ErrForbidden
	}
	return view, nil
}

func (q *reservationQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	return q.repo.FindByID(ctx, q.dbtx, id)
}

func (q *reservationQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationView, error) {
	return q.repo.FindByUserID(ctx, q.dbtx, userID)
}

func (q *reservationQueriesImpl) ListSlots(ctx context.Context, userID uuid.UUID) ([]*SlotView, error) {
	return q.repo.FindSlotsByUserID(ctx, q.dbtx, userID)
}
