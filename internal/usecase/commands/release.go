package commands

import (
	"context"
	"sort"

	"slotstream/internal/infra"
	"slotstream/internal/infra/store"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/realtime/notifier"

	"github.com/google/uuid"
)

type ReleaseResult struct {
	ReleasedCount int
}

// Release is the mirror of Reserve: the same sorted lock order, one capacity
// increment per slot, reservations flipped to cancelled. Already-cancelled
// reservations are skipped, which makes the whole call idempotent.
func (c *inventoryCommandsImpl) Release(ctx context.Context, tenantID uuid.UUID, reservationIDs []uuid.UUID) (*ReleaseResult, error) {
	if len(reservationIDs) == 0 {
		return &ReleaseResult{}, nil
	}

	var (
		released int
		events   map[uuid.UUID]notifier.InventoryChanged
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx store.DBTX) error {
		released = 0
		events = make(map[uuid.UUID]notifier.InventoryChanged)

		rows, err := c.reservationRepo.FindForUpdate(ctx, tx, tenantID, reservationIDs)
		if err != nil {
			return err
		}
		if len(rows) != len(dedupe(reservationIDs)) {
			return errs.Mark(
				infra.WrapRepoErr("one or more reservations not found", nil, infra.KindNotFound),
				errs.ErrReservationNotFound,
			)
		}

		activeIDs, slotUnits, slotResources := groupActiveBySlot(rows)
		if len(activeIDs) == 0 {
			return nil
		}

		for _, slotID := range sortedSlotIDs(slotUnits, slotResources) {
			row, err := c.slotStore.LockSlot(ctx, tx, tenantID, slotID)
			if err != nil {
				return err
			}

			slot, err := slotFromRow(row)
			if err != nil {
				return errs.Mark(err, errs.ErrDomainValidation)
			}

			if err := slot.Release(slotUnits[slotID]); err != nil {
				return errs.Mark(err, errs.ErrDomainValidation)
			}

			if err := c.slotStore.UpdateCapacity(ctx, tx, row.ID, slot.Available(), row.Version); err != nil {
				return err
			}

			recordSlotVersion(events, tenantID, row.ResourceID, row.ID, row.Version+1)
		}

		count, err := c.reservationRepo.MarkCancelled(ctx, tx, tenantID, activeIDs)
		if err != nil {
			return err
		}
		released = int(count)

		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publishEvents(ctx, events)

	return &ReleaseResult{ReleasedCount: released}, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// groupActiveBySlot sums the units to restore per slot across all still
// confirmed reservations in the request.
func groupActiveBySlot(rows []store.ReservationRow) ([]uuid.UUID, map[uuid.UUID]int32, map[uuid.UUID]uuid.UUID) {
	var activeIDs []uuid.UUID
	slotUnits := make(map[uuid.UUID]int32)
	slotResources := make(map[uuid.UUID]uuid.UUID)

	for _, row := range rows {
		if row.Status != store.ReservationStatusConfirmed {
			continue
		}
		activeIDs = append(activeIDs, row.ID)
		slotUnits[row.TimeSlotID] += row.CapacityUnits
		slotResources[row.TimeSlotID] = row.ResourceID
	}

	return activeIDs, slotUnits, slotResources
}

// sortedSlotIDs applies the same (resourceID, slotID) lock order as Reserve.
func sortedSlotIDs(slotUnits map[uuid.UUID]int32, slotResources map[uuid.UUID]uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(slotUnits))
	for id := range slotUnits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ri := slotResources[ids[i]].String()
		rj := slotResources[ids[j]].String()
		if ri != rj {
			return ri < rj
		}
		return ids[i].String() < ids[j].String()
	})
	return ids
}
