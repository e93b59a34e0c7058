package request

import (
	"time"

	"slotstream/internal/usecase/commands"
	"slotstream/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReserveItemRequest struct {
	ResourceID    uuid.UUID `json:"resource_id" binding:"required"`
	TimeSlotID    uuid.UUID `json:"time_slot_id" binding:"required"`
	CapacityUnits int32     `json:"capacity_units" binding:"required,min=1"`
}

type ReserveRequest struct {
	Items      []ReserveItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerID *uuid.UUID           `json:"customer_id,omitempty"`
}

func (r ReserveRequest) ToCommand() []commands.ReserveItem {
	items := make([]commands.ReserveItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = commands.ReserveItem{
			ResourceID:    item.ResourceID,
			TimeSlotID:    item.TimeSlotID,
			CapacityUnits: item.CapacityUnits,
			CustomerID:    r.CustomerID,
		}
	}
	return items
}

type ReleaseRequest struct {
	ReservationIDs []uuid.UUID `json:"reservation_ids" binding:"required,min=1"`
}

// StatusQuery binds the query string of the status and stats endpoints.
type StatusQuery struct {
	ResourceIDs []uuid.UUID `form:"resource_id" binding:"required,min=1"`
	From        *time.Time  `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time  `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// StatsQuery binds the query string of the demand stats endpoint.
type StatsQuery struct {
	ResourceID uuid.UUID  `form:"resource_id" binding:"required"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (q StatsQuery) Window() queries.Window {
	var w queries.Window
	if q.From != nil {
		w.From = *q.From
	}
	if q.To != nil {
		w.To = *q.To
	}
	return w
}

func (q StatusQuery) Window() queries.Window {
	var w queries.Window
	if q.From != nil {
		w.From = *q.From
	}
	if q.To != nil {
		w.To = *q.To
	}
	return w
}
