package queries

import (
	"context"

	"biblio/internal/infra/db"

	"github.com/google/uuid"
)

type ResourceViewRepo interface {
	FindAll(ctx context.Context, dbtx db.DBTX) ([]*ResourceView, error)
	FindViewByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*ResourceView, error)
}

type ResourceQueries interface {
	List(ctx context.Context) ([]*ResourceView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ResourceView, error)
}

type resourceQueriesImpl struct {
	repo ResourceViewRepo
	dbtx db.DBTX
}

func NewResourceQueries(repo ResourceViewRepo, dbtx db.DBTX) ResourceQueries {
	return &resourceQueriesImpl{repo: repo, dbtx: dbtx}
}

func (q *resourceQueriesImpl) List(ctx context.Context) ([]*ResourceView, error) {
	return q.repo.FindAll(ctx, q.dbtx)
}

func (q *resourceQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ResourceView, error) {
	return q.repo.FindViewByID(ctx, q.dbtx, id)
}
