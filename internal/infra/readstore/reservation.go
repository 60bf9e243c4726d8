package readstore

import (
	"context"

	"biblio/internal/infra"
	"biblio/internal/infra/db"
	"biblio/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReservationReadStore struct{}

func NewReservationReadStore() *ReservationReadStore {
	return &ReservationReadStore{}
}

const reservationColumns = `id, user_id, resource_id, resource_title, category,
	source_collection, image_url, quantity, state, reserved_at, updated_at`

func (r *ReservationReadStore) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*queries.ReservationView, error) {
	row := dbtx.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	return scanReservationView(row)
}

func (r *ReservationReadStore) FindByUserID(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*queries.ReservationView, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE user_id = $1 ORDER BY reserved_at DESC`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find reservations by user", err)
	}
	defer rows.Close()

	var result []*queries.ReservationView
	for rows.Next() {
		view, scanErr := scanReservationView(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}
	return result, nil
}

func (r *ReservationReadStore) FindSlotsByUserID(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]*queries.SlotView, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT slot_index, resource_id, resource_title, resource_category,
		        source_collection, image_url, quantity, reserved_at
		 FROM user_slots WHERE user_id = $1 ORDER BY slot_index`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find slots by user", err)
	}
	defer rows.Close()

	var result []*queries.SlotView
	for rows.Next() {
		var view queries.SlotView
		if scanErr := rows.Scan(
			&view.SlotIndex, &view.ResourceID, &view.ResourceTitle,
			&view.ResourceCategory, &view.SourceCollection, &view.ImageURL,
			&view.Quantity, &view.ReservedAt,
		); scanErr != nil {
			return nil, infra.WrapRepoErr("failed to scan slot view", scanErr)
		}
		result = append(result, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate slots", err)
	}
	return result, nil
}

func scanReservationView(row pgx.Row) (*queries.ReservationView, error) {
	var view queries.ReservationView
	err := row.Scan(
		&view.ID, &view.UserID, &view.ResourceID, &view.ResourceTitle,
		&view.Category, &view.SourceCollection, &view.ImageURL,
		&view.Quantity, &view.State, &view.ReservedAt, &view.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan reservation", err)
	}
	return &view, nil
}
