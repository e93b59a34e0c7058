package builder

import (
	"time"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/infra/store"

	"github.com/google/uuid"
)

// Fixed base time keeps builder output deterministic across test runs.
var baseTime = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

type SlotBuilder struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	resourceID uuid.UUID
	startTime  time.Time
	endTime    time.Time
	capacity   int32
	available  int32
	version    int64
}

func NewSlotBuilder() *SlotBuilder {
	return &SlotBuilder{
		id:         uuid.New(),
		tenantID:   uuid.New(),
		resourceID: uuid.New(),
		startTime:  baseTime,
		endTime:    baseTime.Add(time.Hour),
		capacity:   10,
		available:  10,
		version:    1,
	}
}

func (b *SlotBuilder) WithID(id uuid.UUID) *SlotBuilder           { b.id = id; return b }
func (b *SlotBuilder) WithTenantID(id uuid.UUID) *SlotBuilder     { b.tenantID = id; return b }
func (b *SlotBuilder) WithResourceID(id uuid.UUID) *SlotBuilder   { b.resourceID = id; return b }
func (b *SlotBuilder) WithCapacity(capacity int32) *SlotBuilder   { b.capacity = capacity; return b }
func (b *SlotBuilder) WithAvailable(available int32) *SlotBuilder { b.available = available; return b }
func (b *SlotBuilder) WithVersion(version int64) *SlotBuilder     { b.version = version; return b }
func (b *SlotBuilder) WithWindow(start, end time.Time) *SlotBuilder {
	b.startTime = start
	b.endTime = end
	return b
}

// WithSlotIndex shifts the slot window by index hours, giving a resource a
// contiguous series of non-overlapping slots.
func (b *SlotBuilder) WithSlotIndex(index int) *SlotBuilder {
	b.startTime = baseTime.Add(time.Duration(index) * time.Hour)
	b.endTime = b.startTime.Add(time.Hour)
	return b
}

func (b *SlotBuilder) BuildRow() store.SlotRow {
	return store.SlotRow{
		ID:                b.id,
		TenantID:          b.tenantID,
		ResourceID:        b.resourceID,
		StartTime:         b.startTime,
		EndTime:           b.endTime,
		Capacity:          b.capacity,
		AvailableCapacity: b.available,
		Version:           b.version,
	}
}

func (b *SlotBuilder) BuildDomain() (*inventory.TimeSlot, error) {
	return inventory.NewTimeSlot(
		b.id, b.tenantID, b.resourceID,
		b.startTime, b.endTime,
		b.capacity, b.available, b.version,
	)
}
