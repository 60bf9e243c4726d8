package repository

import (
	"context"
	"errors"

	"biblio/internal/domain/reservation"
	"biblio/internal/infra"
	"biblio/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgErrCodeUniqueViolation = "23505"

// SlotRepository mutates the per-user slot table. Pure data mutations;
// slot allocation policy lives in the domain (reservation.FirstFreeSlot)
// and inventory logic in InventoryRepository.
type SlotRepository struct{}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

const occupySlotSQL = `
INSERT INTO user_slots (
	user_id, slot_index, resource_id, resource_title,
	resource_category, source_collection, image_url, quantity, reserved_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Occupy writes the entry into the given slot. A concurrent session
// grabbing the same index surfaces as KindDuplicateKey via the
// (user_id, slot_index) primary key.
func (r *SlotRepository) Occupy(ctx context.Context, dbtx db.DBTX, userID uuid.UUID, entry reservation.SlotEntry) error {
	_, err := dbtx.Exec(ctx, occupySlotSQL,
		userID, entry.SlotIndex, entry.ResourceID, entry.ResourceTitle,
		entry.ResourceCategory, entry.SourceCollection, entry.ImageURL,
		entry.Quantity, entry.ReservedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr("slot already occupied", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to occupy slot", err)
	}
	return nil
}

// Clear frees a slot. Clearing an already-empty slot is a no-op, which
// keeps cancellation idempotent.
func (r *SlotRepository) Clear(ctx context.Context, dbtx db.DBTX, userID uuid.UUID, slotIndex int32) error {
	_, err := dbtx.Exec(ctx,
		`DELETE FROM user_slots WHERE user_id = $1 AND slot_index = $2`,
		userID, slotIndex,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to clear slot", err)
	}
	return nil
}

// OccupiedIndices returns the slot indices currently in use, ordered
// ascending for the first-fit scan.
func (r *SlotRepository) OccupiedIndices(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]int32, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT slot_index FROM user_slots WHERE user_id = $1 ORDER BY slot_index`,
		userID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list occupied slots", err)
	}
	defer rows.Close()

	var indices []int32
	for rows.Next() {
		var idx int32
		if scanErr := rows.Scan(&idx); scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan slot index", scanErr)
		}
		indices = append(indices, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate occupied slots", err)
	}
	return indices, nil
}

const findByResourceSQL = `
SELECT slot_index, resource_id, resource_title, resource_category,
       source_collection, image_url, quantity, reserved_at
FROM user_slots
WHERE user_id = $1 AND resource_id = $2
ORDER BY slot_index
LIMIT 1`

// FindByResource locates the slot entry holding the given resource for
// the user, if any.
func (r *SlotRepository) FindByResource(ctx context.Context, dbtx db.DBTX, userID, resourceID uuid.UUID) (*reservation.SlotEntry, error) {
	var entry reservation.SlotEntry
	err := dbtx.QueryRow(ctx, findByResourceSQL, userID, resourceID).Scan(
		&entry.SlotIndex, &entry.ResourceID, &entry.ResourceTitle,
		&entry.ResourceCategory, &entry.SourceCollection, &entry.ImageURL,
		&entry.Quantity, &entry.ReservedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("slot entry not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find slot entry", err)
	}
	return &entry, nil
}
