package shared

import (
	"context"

	"biblio/internal/infra/db"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic.
	// The closure's writes commit together or not at all.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Slots() SlotRepository
	Ledger() LedgerRepository
	Notifications() NotificationRepository
	Users() UserRepository
	DB() db.DBTX
}
