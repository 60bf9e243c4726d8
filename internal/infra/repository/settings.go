package repository

import (
	"context"

	"biblio/internal/infra"
	"biblio/internal/infra/db"
)

type SettingsRepository struct{}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// MaxSlotsPerUser reads the org-wide reservation quota.
func (r *SettingsRepository) MaxSlotsPerUser(ctx context.Context, dbtx db.DBTX) (int32, error) {
	var quota int32
	err := dbtx.QueryRow(ctx,
		`SELECT max_slots_per_user FROM library_settings WHERE id = 1`,
	).Scan(&quota)
	if err != nil {
		if isNoRows(err) {
			return 0, infra.WrapRepoErr("library settings not found", err, infra.KindNotFound)
		}
		return 0, infra.WrapRepoErr("failed to read library settings", err)
	}
	return quota, nil
}
