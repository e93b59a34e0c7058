package request

import (
	"time"

	"slotstream/internal/realtime/broadcast"
	"slotstream/internal/usecase/queries"

	"github.com/google/uuid"
)

type SubscriptionFilters struct {
	MinAvailable      int32   `json:"min_available,omitempty" binding:"omitempty,min=0"`
	MaxUtilization    float64 `json:"max_utilization,omitempty" binding:"omitempty,min=0,max=1"`
	OnlyAvailable     bool    `json:"only_available,omitempty"`
	IncludeSlotDetail bool    `json:"include_slot_detail,omitempty"`
}

type SubscribeRequest struct {
	ConnectionID string              `json:"connection_id" binding:"required"`
	ResourceIDs  []uuid.UUID         `json:"resource_ids" binding:"required,min=1"`
	From         *time.Time          `json:"from,omitempty"`
	To           *time.Time          `json:"to,omitempty"`
	Filters      SubscriptionFilters `json:"filters,omitempty"`
}

func (r SubscribeRequest) ToParams(tenantID uuid.UUID) broadcast.SubscribeParams {
	var window queries.Window
	if r.From != nil {
		window.From = *r.From
	}
	if r.To != nil {
		window.To = *r.To
	}

	return broadcast.SubscribeParams{
		ConnectionID: r.ConnectionID,
		TenantID:     tenantID,
		ResourceIDs:  r.ResourceIDs,
		Window:       window,
		Filters: broadcast.Filters{
			MinAvailable:      r.Filters.MinAvailable,
			MaxUtilization:    r.Filters.MaxUtilization,
			OnlyAvailable:     r.Filters.OnlyAvailable,
			IncludeSlotDetail: r.Filters.IncludeSlotDetail,
		},
	}
}
