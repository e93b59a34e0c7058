package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidUnits     = errors.New("capacity units must be at least 1")
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
	ErrInvalidStatus    = errors.New("invalid reservation status")
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reservation backs a booking owned by the tenant; its capacity fields are
// mutated only through the inventory engine.
type Reservation struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	resourceID    uuid.UUID
	timeSlotID    uuid.UUID
	capacityUnits int32
	customerID    *uuid.UUID
	status        Status
	createdAt     time.Time
}

func NewReservation(tenantID, resourceID, timeSlotID uuid.UUID, units int32, customerID *uuid.UUID, now time.Time) (*Reservation, error) {
	if units < 1 {
		return nil, ErrInvalidUnits
	}

	return &Reservation{
		id:            uuid.New(),
		tenantID:      tenantID,
		resourceID:    resourceID,
		timeSlotID:    timeSlotID,
		capacityUnits: units,
		customerID:    customerID,
		status:        StatusConfirmed,
		createdAt:     now,
	}, nil
}

func Rehydrate(id, tenantID, resourceID, timeSlotID uuid.UUID, units int32, customerID *uuid.UUID, status Status, createdAt time.Time) (*Reservation, error) {
	switch status {
	case StatusConfirmed, StatusCancelled:
	default:
		return nil, ErrInvalidStatus
	}

	return &Reservation{
		id:            id,
		tenantID:      tenantID,
		resourceID:    resourceID,
		timeSlotID:    timeSlotID,
		capacityUnits: units,
		customerID:    customerID,
		status:        status,
		createdAt:     createdAt,
	}, nil
}

func (r *Reservation) ID() uuid.UUID          { return r.id }
func (r *Reservation) TenantID() uuid.UUID    { return r.tenantID }
func (r *Reservation) ResourceID() uuid.UUID  { return r.resourceID }
func (r *Reservation) TimeSlotID() uuid.UUID  { return r.timeSlotID }
func (r *Reservation) CapacityUnits() int32   { return r.capacityUnits }
func (r *Reservation) CustomerID() *uuid.UUID { return r.customerID }
func (r *Reservation) Status() Status         { return r.status }
func (r *Reservation) CreatedAt() time.Time   { return r.createdAt }

func (r *Reservation) IsActive() bool {
	return r.status == StatusConfirmed
}

// Cancel is idempotent at the usecase level: callers treat ErrAlreadyCancelled
// as a no-op, not a failure.
func (r *Reservation) Cancel() error {
	if r.status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	r.status = StatusCancelled
	return nil
}
