package components

import (
	"biblio/internal/infra/db"
	"biblio/internal/infra/readstore"
	"biblio/internal/infra/repository"
	"biblio/internal/infra/settings"
	"biblio/internal/infra/uow"
	"biblio/internal/usecase/queries"
	"biblio/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationViewRepo)),
		),
		fx.Annotate(
			readstore.NewResourceReadStore,
			fx.As(new(queries.ResourceViewRepo)),
		),
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(queries.UserReadStore)),
		),
	),
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		uow.NewPostgresUoW,
		fx.Annotate(
			repository.NewPoolInventory,
			fx.As(new(shared.InventoryCounter)),
		),
		fx.Annotate(
			repository.NewSlotRepository,
			fx.As(new(shared.SlotRepository)),
		),
		fx.Annotate(
			repository.NewLedgerRepository,
			fx.As(new(shared.LedgerRepository)),
		),
		fx.Annotate(
			settings.NewProvider,
			fx.As(new(shared.SettingsProvider)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
