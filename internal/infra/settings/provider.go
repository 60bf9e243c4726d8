package settings

import (
	"context"
	"sync"

	"biblio/internal/infra"
	"biblio/internal/infra/repository"
	"biblio/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Provider serves the org-wide reservation quota. The value is read once
// and cached; Invalidate forces a re-read on the next call. Coordinators
// take the provider at construction instead of reading ambient globals.
type Provider struct {
	pool     *pgxpool.Pool
	repo     *repository.SettingsRepository
	fallback int32

	mu     sync.RWMutex
	cached int32
	loaded bool
}

func NewProvider(pool *pgxpool.Pool, cfg config.Config) *Provider {
	return &Provider{
		pool:     pool,
		repo:     repository.NewSettingsRepository(),
		fallback: int32(cfg.Reservation.MaxSlotsPerUser),
	}
}

func (p *Provider) MaxSlotsPerUser(ctx context.Context) (int32, error) {
	p.mu.RLock()
	if p.loaded {
		quota := p.cached
		p.mu.RUnlock()
		return quota, nil
	}
	p.mu.RUnlock()

	quota, err := p.repo.MaxSlotsPerUser(ctx, p.pool)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return p.fallback, nil
		}
		return 0, err
	}

	p.mu.Lock()
	p.cached = quota
	p.loaded = true
	p.mu.Unlock()
	return quota, nil
}

// Invalidate drops the cached quota so the next read hits the store.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.loaded = false
	p.mu.Unlock()
}
