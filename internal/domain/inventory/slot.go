package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidWindow     = errors.New("slot end time must be after start time")
	ErrInvalidCapacity   = errors.New("slot capacity must be positive")
	ErrInvalidUnits      = errors.New("capacity units must be at least 1")
	ErrCapacityExceeded  = errors.New("requested units exceed available capacity")
	ErrAvailableOverflow = errors.New("available capacity cannot exceed total capacity")
)

// TimeSlot is a fixed time window of bookable capacity for one resource.
// Capacity arithmetic lives here; persistence and locking live in the store.
type TimeSlot struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	resourceID uuid.UUID
	startTime  time.Time
	endTime    time.Time
	capacity   int32
	available  int32
	version    int64
}

func NewTimeSlot(id, tenantID, resourceID uuid.UUID, start, end time.Time, capacity, available int32, version int64) (*TimeSlot, error) {
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if available < 0 || available > capacity {
		return nil, ErrAvailableOverflow
	}

	return &TimeSlot{
		id:         id,
		tenantID:   tenantID,
		resourceID: resourceID,
		startTime:  start,
		endTime:    end,
		capacity:   capacity,
		available:  available,
		version:    version,
	}, nil
}

func (s *TimeSlot) ID() uuid.UUID         { return s.id }
func (s *TimeSlot) TenantID() uuid.UUID   { return s.tenantID }
func (s *TimeSlot) ResourceID() uuid.UUID { return s.resourceID }
func (s *TimeSlot) StartTime() time.Time  { return s.startTime }
func (s *TimeSlot) EndTime() time.Time    { return s.endTime }
func (s *TimeSlot) Capacity() int32       { return s.capacity }
func (s *TimeSlot) Available() int32      { return s.available }
func (s *TimeSlot) Version() int64        { return s.version }

func (s *TimeSlot) Booked() int32 {
	return s.capacity - s.available
}

func (s *TimeSlot) Utilization() float64 {
	if s.capacity == 0 {
		return 0
	}
	return float64(s.Booked()) / float64(s.capacity)
}

// Reserve decrements available capacity. The caller must hold the row lock.
func (s *TimeSlot) Reserve(units int32) error {
	if units < 1 {
		return ErrInvalidUnits
	}
	if units > s.available {
		return ErrCapacityExceeded
	}
	s.available -= units
	return nil
}

// Release restores capacity, capped at total capacity so that a double
// release can never overflow the slot.
func (s *TimeSlot) Release(units int32) error {
	if units < 1 {
		return ErrInvalidUnits
	}
	s.available += units
	if s.available > s.capacity {
		s.available = s.capacity
	}
	return nil
}
