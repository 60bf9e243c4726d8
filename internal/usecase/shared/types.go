package shared

import (
	"context"
	"time"

	"biblio/internal/domain/reservation"
	"biblio/internal/domain/user"
	"biblio/internal/infra/db"

	"github.com/google/uuid"
)

// Minimal snapshot for command read operations
type ResourceSnapshot struct {
	ID               uuid.UUID
	Title            string
	Category         string
	SourceCollection string
	ImageURL         string
	InitialCopies    int32
	AvailableCopies  int32
	IsDecrementable  bool
}

type CommandReads interface {
	ResourceByID(ctx context.Context, id uuid.UUID) (*ResourceSnapshot, error)
}

// InventoryCounter is the shared available-copy counter. Implementations
// run each mutation as a single atomic statement against the store, not
// inside the caller's batch: this mirrors the counter being contended by
// every client, with the batch compensated separately when it fails.
type InventoryCounter interface {
	Decrement(ctx context.Context, resourceID uuid.UUID, n int32) (int32, error)
	Increment(ctx context.Context, resourceID uuid.UUID, n int32) (int32, error)
}

// SettingsProvider serves org-wide reservation settings.
type SettingsProvider interface {
	MaxSlotsPerUser(ctx context.Context) (int32, error)
	Invalidate()
}

type SlotRepository interface {
	Occupy(ctx context.Context, dbtx db.DBTX, userID uuid.UUID, entry reservation.SlotEntry) error
	Clear(ctx context.Context, dbtx db.DBTX, userID uuid.UUID, slotIndex int32) error
	OccupiedIndices(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) ([]int32, error)
	FindByResource(ctx context.Context, dbtx db.DBTX, userID, resourceID uuid.UUID) (*reservation.SlotEntry, error)
}

type LedgerRepository interface {
	Append(ctx context.Context, dbtx db.DBTX, rec *reservation.Record) (uuid.UUID, error)
	UpdateState(ctx context.Context, dbtx db.DBTX, recordID uuid.UUID, state reservation.State, now time.Time) error
	FindActiveByResource(ctx context.Context, dbtx db.DBTX, userID, resourceID uuid.UUID) (*reservation.Record, error)
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*reservation.Record, error)
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, dbtx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error
}

type UserRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, u *user.User) (uuid.UUID, error)
	UpdateLastLogin(ctx context.Context, dbtx db.DBTX, userID uuid.UUID) error
}
