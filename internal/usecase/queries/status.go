package queries

import (
	"context"
	"time"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/infra/store"
	"slotstream/internal/infra/uow"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/pkg/errs"

	"github.com/google/uuid"
)

type SlotReadStore interface {
	FindByResources(ctx context.Context, db store.DBTX, tenantID uuid.UUID, resourceIDs []uuid.UUID, from, to time.Time) ([]store.SlotRow, error)
}

// InventoryQueries is the lock-free read path; it never blocks writers.
type InventoryQueries interface {
	GetStatus(ctx context.Context, tenantID uuid.UUID, resourceIDs []uuid.UUID, window Window) ([]inventory.Status, error)
	GetDemandStats(ctx context.Context, tenantID, resourceID uuid.UUID, window Window) (*inventory.DemandStats, error)
}

type inventoryQueriesImpl struct {
	uow       uow.UnitOfWork
	slotStore SlotReadStore
	clock     clock.Clock
}

func NewInventoryQueries(unitOfWork uow.UnitOfWork, slotStore SlotReadStore, clk clock.Clock) InventoryQueries {
	return &inventoryQueriesImpl{
		uow:       unitOfWork,
		slotStore: slotStore,
		clock:     clk,
	}
}

func (q *inventoryQueriesImpl) GetStatus(ctx context.Context, tenantID uuid.UUID, resourceIDs []uuid.UUID, window Window) ([]inventory.Status, error) {
	if len(resourceIDs) == 0 {
		return nil, errs.Mark(errs.New("at least one resource id is required"), errs.ErrDomainValidation)
	}
	window = window.Normalize(q.clock.Now())

	var rows []store.SlotRow
	err := q.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		var err error
		rows, err = q.slotStore.FindByResources(ctx, db, tenantID, resourceIDs, window.From, window.To)
		return err
	})
	if err != nil {
		return nil, err
	}

	grouped := groupSlotsByResource(rows)

	// Resources without slots in the window still report an empty status so
	// subscribers can distinguish "no capacity" from "unknown resource set".
	result := make([]inventory.Status, 0, len(resourceIDs))
	for _, resourceID := range resourceIDs {
		result = append(result, inventory.BuildStatus(resourceID, grouped[resourceID]))
	}

	return result, nil
}

func (q *inventoryQueriesImpl) GetDemandStats(ctx context.Context, tenantID, resourceID uuid.UUID, window Window) (*inventory.DemandStats, error) {
	window = window.Normalize(q.clock.Now())

	var rows []store.SlotRow
	err := q.uow.WithDB(ctx, func(ctx context.Context, db store.DBTX) error {
		var err error
		rows, err = q.slotStore.FindByResources(ctx, db, tenantID, []uuid.UUID{resourceID}, window.From, window.To)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats := inventory.ComputeDemandStats(resourceID, groupSlotsByResource(rows)[resourceID])
	return &stats, nil
}

func groupSlotsByResource(rows []store.SlotRow) map[uuid.UUID][]*inventory.TimeSlot {
	grouped := make(map[uuid.UUID][]*inventory.TimeSlot)
	for _, row := range rows {
		slot, err := inventory.NewTimeSlot(
			row.ID, row.TenantID, row.ResourceID,
			row.StartTime, row.EndTime,
			row.Capacity, row.AvailableCapacity, row.Version,
		)
		if err != nil {
			// A row violating domain invariants is a data bug; skip it
			// rather than poisoning the whole status response.
			continue
		}
		grouped[row.ResourceID] = append(grouped[row.ResourceID], slot)
	}
	return grouped
}
