package broadcast

import (
	"slotstream/internal/domain/inventory"
	"slotstream/internal/usecase/queries"

	"github.com/google/uuid"
)

// Filters narrow which resource states a subscriber cares about. A resource
// leaving the filtered set still produces one final update so viewers see
// the transition.
type Filters struct {
	MinAvailable      int32   `json:"minAvailable,omitempty"`
	MaxUtilization    float64 `json:"maxUtilization,omitempty"`
	OnlyAvailable     bool    `json:"onlyAvailable,omitempty"`
	IncludeSlotDetail bool    `json:"includeSlotDetail,omitempty"`
}

func (f Filters) passes(status inventory.Status) bool {
	if f.OnlyAvailable && status.AvailableCapacity == 0 {
		return false
	}
	if f.MinAvailable > 0 && status.AvailableCapacity < f.MinAvailable {
		return false
	}
	if f.MaxUtilization > 0 && status.Utilization > f.MaxUtilization {
		return false
	}
	return true
}

type SubscribeParams struct {
	ConnectionID string
	TenantID     uuid.UUID
	ResourceIDs  []uuid.UUID
	Window       queries.Window
	Filters      Filters
}

// subscription state is owned exclusively by the broadcaster; lastKnown is a
// best-effort diff base, rebuildable from the store, never authoritative.
type subscription struct {
	id           uuid.UUID
	connectionID string
	tenantID     uuid.UUID
	resources    map[uuid.UUID]struct{}
	window       queries.Window
	filters      Filters
	lastKnown    map[uuid.UUID]inventory.Status
}

func newSubscription(params SubscribeParams) *subscription {
	resources := make(map[uuid.UUID]struct{}, len(params.ResourceIDs))
	for _, id := range params.ResourceIDs {
		resources[id] = struct{}{}
	}

	return &subscription{
		id:           uuid.New(),
		connectionID: params.ConnectionID,
		tenantID:     params.TenantID,
		resources:    resources,
		window:       params.Window,
		filters:      params.Filters,
		lastKnown:    make(map[uuid.UUID]inventory.Status),
	}
}

func (s *subscription) covers(resourceID uuid.UUID) bool {
	_, ok := s.resources[resourceID]
	return ok
}

// hasSeenVersions reports whether the last known state already reflects every
// slot version an event carries; such events are stale duplicates and need no
// re-read. Must be called with the broadcaster lock held.
func (s *subscription) hasSeenVersions(resourceID uuid.UUID, slotVersions map[uuid.UUID]int64) bool {
	if len(slotVersions) == 0 {
		return false
	}
	known, ok := s.lastKnown[resourceID]
	if !ok {
		return false
	}
	seen := make(map[uuid.UUID]int64, len(known.TimeSlots))
	for _, slot := range known.TimeSlots {
		seen[slot.ID] = slot.Version
	}
	for slotID, version := range slotVersions {
		if seen[slotID] < version {
			return false
		}
	}
	return true
}

func (s *subscription) resourceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.resources))
	for id := range s.resources {
		ids = append(ids, id)
	}
	return ids
}
