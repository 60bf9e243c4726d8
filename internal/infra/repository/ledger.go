package repository

import (
	"context"
	"errors"
	"time"

	"biblio/internal/domain/reservation"
	"biblio/internal/infra"
	"biblio/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// LedgerRepository appends to and updates the reservation history.
// Rows are never deleted.
type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

const appendRecordSQL = `
INSERT INTO reservations (
	id, user_id, resource_id, resource_title, category,
	source_collection, image_url, quantity, state, reserved_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

func (r *LedgerRepository) Append(ctx context.Context, dbtx db.DBTX, rec *reservation.Record) (uuid.UUID, error) {
	var id uuid.UUID
	err := dbtx.QueryRow(ctx, appendRecordSQL,
		rec.ID(), rec.UserID(), rec.ResourceID(), rec.ResourceTitle(),
		rec.Category(), rec.SourceCollection(), rec.ImageURL(),
		rec.Quantity(), rec.State().String(), rec.ReservedAt(), rec.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to append reservation record", err)
	}
	return id, nil
}

const updateStateSQL = `
UPDATE reservations
SET state = $2, updated_at = $3
WHERE id = $1`

func (r *LedgerRepository) UpdateState(ctx context.Context, dbtx db.DBTX, recordID uuid.UUID, state reservation.State, now time.Time) error {
	tag, err := dbtx.Exec(ctx, updateStateSQL, recordID, state.String(), now)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation state", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation record not found", nil, infra.KindNotFound)
	}
	return nil
}

const findActiveByResourceSQL = `
SELECT id, user_id, resource_id, resource_title, category,
       source_collection, image_url, quantity, state, reserved_at, updated_at
FROM reservations
WHERE user_id = $1 AND resource_id = $2 AND state IN ('requested', 'approved')
ORDER BY reserved_at DESC
LIMIT 1`

// FindActiveByResource returns the user's active (requested or approved)
// record for a resource, the one a cancellation targets.
func (r *LedgerRepository) FindActiveByResource(ctx context.Context, dbtx db.DBTX, userID, resourceID uuid.UUID) (*reservation.Record, error) {
	return r.scanRecord(dbtx.QueryRow(ctx, findActiveByResourceSQL, userID, resourceID))
}

const findByIDSQL = `
SELECT id, user_id, resource_id, resource_title, category,
       source_collection, image_url, quantity, state, reserved_at, updated_at
FROM reservations
WHERE id = $1`

func (r *LedgerRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Record, error) {
	return r.scanRecord(dbtx.QueryRow(ctx, findByIDSQL, id))
}

func (r *LedgerRepository) scanRecord(row pgx.Row) (*reservation.Record, error) {
	var (
		id, userID, resourceID                           uuid.UUID
		title, category, sourceCollection, imageURL, st  string
		quantity                                         int32
		reservedAt, updatedAt                            time.Time
	)
	err := row.Scan(&id, &userID, &resourceID, &title, &category,
		&sourceCollection, &imageURL, &quantity, &st, &reservedAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("reservation record not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan reservation record", err)
	}

	state, stateErr := reservation.NewState(st)
	if stateErr != nil {
		return nil, infra.WrapRepoErr("corrupt reservation state", stateErr)
	}

	return reservation.ReconstructRecord(
		id, userID, resourceID, title, category, sourceCollection,
		imageURL, quantity, state, reservedAt, updatedAt,
	), nil
}
