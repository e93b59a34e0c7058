package commands

import (
	"context"
	"time"

	"slotstream/internal/infra/store"
	"slotstream/internal/realtime/notifier"

	"github.com/google/uuid"
)

// Write-side ports over the persistence layer. Stores receive the DBTX of
// the enclosing transaction so multi-slot mutations stay atomic.

type SlotStore interface {
	LockSlot(ctx context.Context, db store.DBTX, tenantID, slotID uuid.UUID) (*store.SlotRow, error)
	UpdateCapacity(ctx context.Context, db store.DBTX, slotID uuid.UUID, newAvailable int32, expectedVersion int64) error
	FindByResources(ctx context.Context, db store.DBTX, tenantID uuid.UUID, resourceIDs []uuid.UUID, from, to time.Time) ([]store.SlotRow, error)
}

type ReservationStore interface {
	Insert(ctx context.Context, db store.DBTX, row store.ReservationRow) error
	FindForUpdate(ctx context.Context, db store.DBTX, tenantID uuid.UUID, ids []uuid.UUID) ([]store.ReservationRow, error)
	MarkCancelled(ctx context.Context, db store.DBTX, tenantID uuid.UUID, ids []uuid.UUID) (int64, error)
}

type EventPublisher interface {
	PublishInventoryChanged(ctx context.Context, event notifier.InventoryChanged) error
}
