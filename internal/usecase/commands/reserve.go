package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/domain/reservation"
	"slotstream/internal/infra/store"
	"slotstream/internal/infra/uow"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/realtime/notifier"

	"github.com/google/uuid"
)

type ReserveItem struct {
	ResourceID    uuid.UUID
	TimeSlotID    uuid.UUID
	CapacityUnits int32
	CustomerID    *uuid.UUID
}

type ReserveResult struct {
	ReservationIDs []uuid.UUID
}

// CapacityError names the slot that made the whole reservation fail, with
// enough context for the client to retry against alternative slots.
type CapacityError struct {
	ResourceID uuid.UUID
	TimeSlotID uuid.UUID
	Requested  int32
	Available  int32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity on slot %s: requested %d, available %d",
		e.TimeSlotID, e.Requested, e.Available)
}

type InventoryCommands interface {
	Reserve(ctx context.Context, tenantID uuid.UUID, items []ReserveItem) (*ReserveResult, error)
	Release(ctx context.Context, tenantID uuid.UUID, reservationIDs []uuid.UUID) (*ReleaseResult, error)
}

type inventoryCommandsImpl struct {
	uow             uow.UnitOfWork
	slotStore       SlotStore
	reservationRepo ReservationStore
	publisher       EventPublisher
	clock           clock.Clock
}

func NewInventoryCommands(
	unitOfWork uow.UnitOfWork,
	slotStore SlotStore,
	reservationRepo ReservationStore,
	publisher EventPublisher,
	clk clock.Clock,
) InventoryCommands {
	return &inventoryCommandsImpl{
		uow:             unitOfWork,
		slotStore:       slotStore,
		reservationRepo: reservationRepo,
		publisher:       publisher,
		clock:           clk,
	}
}

// Reserve is all-or-nothing across items: every slot is locked in a fixed
// global order (resourceID, then slotID), checked, decremented and paired
// with a confirmed reservation row, or the whole transaction rolls back.
func (c *inventoryCommandsImpl) Reserve(ctx context.Context, tenantID uuid.UUID, items []ReserveItem) (*ReserveResult, error) {
	if err := validateReserveItems(items); err != nil {
		return nil, err
	}

	sorted := make([]ReserveItem, len(items))
	copy(sorted, items)
	sortItemsByLockOrder(sorted)

	var (
		reservationIDs []uuid.UUID
		events         map[uuid.UUID]notifier.InventoryChanged
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx store.DBTX) error {
		// Reset on retry: a previous attempt may have partially filled these.
		reservationIDs = reservationIDs[:0]
		events = make(map[uuid.UUID]notifier.InventoryChanged)

		for _, item := range sorted {
			row, err := c.slotStore.LockSlot(ctx, tx, tenantID, item.TimeSlotID)
			if err != nil {
				return err
			}

			slot, err := slotFromRow(row)
			if err != nil {
				return errs.Mark(err, errs.ErrDomainValidation)
			}

			if err := slot.Reserve(item.CapacityUnits); err != nil {
				capErr := &CapacityError{
					ResourceID: row.ResourceID,
					TimeSlotID: row.ID,
					Requested:  item.CapacityUnits,
					Available:  row.AvailableCapacity,
				}
				return errs.Mark(capErr, errs.ErrInsufficientCapacity)
			}

			if err := c.slotStore.UpdateCapacity(ctx, tx, row.ID, slot.Available(), row.Version); err != nil {
				return err
			}

			entity, err := reservation.NewReservation(
				tenantID, row.ResourceID, row.ID, item.CapacityUnits, item.CustomerID, c.clock.Now(),
			)
			if err != nil {
				return errs.Mark(err, errs.ErrDomainValidation)
			}

			if err := c.reservationRepo.Insert(ctx, tx, reservationRowFromEntity(entity)); err != nil {
				return err
			}

			reservationIDs = append(reservationIDs, entity.ID())
			recordSlotVersion(events, tenantID, row.ResourceID, row.ID, row.Version+1)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publishEvents(ctx, events)

	return &ReserveResult{ReservationIDs: reservationIDs}, nil
}

func validateReserveItems(items []ReserveItem) error {
	if len(items) == 0 {
		return errs.Mark(errs.New("reservation requires at least one item"), errs.ErrDomainValidation)
	}

	seen := make(map[[2]uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.CapacityUnits < 1 {
			return errs.ErrInvalidCapacityUnits
		}
		pair := [2]uuid.UUID{item.ResourceID, item.TimeSlotID}
		if _, dup := seen[pair]; dup {
			return errs.ErrDuplicateSlotItem
		}
		seen[pair] = struct{}{}
	}
	return nil
}

// sortItemsByLockOrder fixes the global lock acquisition order; two
// concurrent multi-slot reservations can therefore never deadlock on
// each other's row locks.
func sortItemsByLockOrder(items []ReserveItem) {
	sort.Slice(items, func(i, j int) bool {
		ri := items[i].ResourceID.String()
		rj := items[j].ResourceID.String()
		if ri != rj {
			return ri < rj
		}
		return items[i].TimeSlotID.String() < items[j].TimeSlotID.String()
	})
}

func slotFromRow(row *store.SlotRow) (*inventory.TimeSlot, error) {
	return inventory.NewTimeSlot(
		row.ID, row.TenantID, row.ResourceID,
		row.StartTime, row.EndTime,
		row.Capacity, row.AvailableCapacity, row.Version,
	)
}

func reservationRowFromEntity(entity *reservation.Reservation) store.ReservationRow {
	return store.ReservationRow{
		ID:            entity.ID(),
		TenantID:      entity.TenantID(),
		ResourceID:    entity.ResourceID(),
		TimeSlotID:    entity.TimeSlotID(),
		CapacityUnits: entity.CapacityUnits(),
		CustomerID:    entity.CustomerID(),
		Status:        string(entity.Status()),
	}
}

func recordSlotVersion(events map[uuid.UUID]notifier.InventoryChanged, tenantID, resourceID, slotID uuid.UUID, version int64) {
	event, ok := events[resourceID]
	if !ok {
		event = notifier.InventoryChanged{
			TenantID:     tenantID,
			ResourceID:   resourceID,
			SlotVersions: make(map[uuid.UUID]int64),
		}
	}
	event.SlotVersions[slotID] = version
	events[resourceID] = event
}

// Events are published after commit: a rolled-back mutation must never leak
// to subscribers, and a lost event is healed by the reconciliation scan.
func (c *inventoryCommandsImpl) publishEvents(ctx context.Context, events map[uuid.UUID]notifier.InventoryChanged) {
	for _, event := range events {
		event.OccurredAt = c.clock.Now()
		if err := c.publisher.PublishInventoryChanged(ctx, event); err != nil {
			slog.Warn("failed to publish inventory change",
				"tenant_id", event.TenantID,
				"resource_id", event.ResourceID,
				"error", err.Error())
		}
	}
}
