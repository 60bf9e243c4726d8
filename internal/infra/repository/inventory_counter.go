package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolInventory binds the inventory statements to the pool so each
// mutation is its own atomic operation, independent of any batch the
// caller may be composing.
type PoolInventory struct {
	pool *pgxpool.Pool
	repo *InventoryRepository
}

func NewPoolInventory(pool *pgxpool.Pool) *PoolInventory {
	return &PoolInventory{
		pool: pool,
		repo: NewInventoryRepository(),
	}
}

func (p *PoolInventory) Decrement(ctx context.Context, resourceID uuid.UUID, n int32) (int32, error) {
	return p.repo.Decrement(ctx, p.pool, resourceID, n)
}

func (p *PoolInventory) Increment(ctx context.Context, resourceID uuid.UUID, n int32) (int32, error) {
	return p.repo.Increment(ctx, p.pool, resourceID, n)
}
