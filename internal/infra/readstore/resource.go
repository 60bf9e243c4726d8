package readstore

import (
	"context"

	"biblio/internal/infra"
	"biblio/internal/infra/db"
	"biblio/internal/usecase/queries"
	"biblio/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ResourceReadStore struct{}

func NewResourceReadStore() *ResourceReadStore {
	return &ResourceReadStore{}
}

const resourceColumns = `id, title, category, source_collection, image_url,
	initial_copies, available_copies, is_decrementable, created_at, updated_at`

// FindByID returns the command-side snapshot used for feasibility checks.
func (r *ResourceReadStore) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	var snap shared.ResourceSnapshot
	err := dbtx.QueryRow(ctx,
		`SELECT id, title, category, source_collection, image_url,
		        initial_copies, available_copies, is_decrementable
		 FROM resources WHERE id = $1`, id,
	).Scan(
		&snap.ID, &snap.Title, &snap.Category, &snap.SourceCollection,
		&snap.ImageURL, &snap.InitialCopies, &snap.AvailableCopies,
		&snap.IsDecrementable,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find resource by ID", err)
	}
	return &snap, nil
}

func (r *ResourceReadStore) FindAll(ctx context.Context, dbtx db.DBTX) ([]*queries.ResourceView, error) {
	rows, err := dbtx.Query(ctx,
		`SELECT `+resourceColumns+` FROM resources ORDER BY title`)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find all resources", err)
	}
	defer rows.Close()

	var result []*queries.ResourceView
	for rows.Next() {
		view, scanErr := scanResourceView(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate resources", err)
	}
	return result, nil
}

func (r *ResourceReadStore) FindViewByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*queries.ResourceView, error) {
	row := dbtx.QueryRow(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
	return scanResourceView(row)
}

func scanResourceView(row pgx.Row) (*queries.ResourceView, error) {
	var view queries.ResourceView
	err := row.Scan(
		&view.ID, &view.Title, &view.Category, &view.SourceCollection,
		&view.ImageURL, &view.InitialCopies, &view.AvailableCopies,
		&view.IsDecrementable, &view.CreatedAt, &view.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to scan resource", err)
	}
	return &view, nil
}
