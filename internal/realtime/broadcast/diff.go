package broadcast

import (
	"slotstream/internal/domain/inventory"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/google/uuid"
)

// utilizationEpsilon suppresses float-noise churn: utilization deltas below
// it are not a change.
const utilizationEpsilon = 1e-6

// StatusDiff carries only the fields that changed since the last update
// pushed to a given subscriber. Nil pointer fields mean "unchanged".
type StatusDiff struct {
	ResourceID        uuid.UUID              `json:"resourceId"`
	TotalCapacity     *int32                 `json:"totalCapacity,omitempty"`
	AvailableCapacity *int32                 `json:"availableCapacity,omitempty"`
	BookedCapacity    *int32                 `json:"bookedCapacity,omitempty"`
	Utilization       *float64               `json:"utilization,omitempty"`
	AddedSlots        []inventory.SlotStatus `json:"addedSlots,omitempty"`
	RemovedSlotIDs    []uuid.UUID            `json:"removedSlotIds,omitempty"`
	UpdatedSlots      []inventory.SlotStatus `json:"updatedSlots,omitempty"`
}

func (d *StatusDiff) isEmpty() bool {
	return d.TotalCapacity == nil &&
		d.AvailableCapacity == nil &&
		d.BookedCapacity == nil &&
		d.Utilization == nil &&
		len(d.AddedSlots) == 0 &&
		len(d.RemovedSlotIDs) == 0 &&
		len(d.UpdatedSlots) == 0
}

var statusEqual = []cmp.Option{
	cmpopts.EquateApprox(0, utilizationEpsilon),
	cmpopts.EquateEmpty(),
}

// computeDiff returns nil when nothing changed; silence is the steady-state
// case and the bandwidth-saving property of the broadcaster.
func computeDiff(old, current inventory.Status, includeSlots bool) *StatusDiff {
	if !includeSlots {
		old.TimeSlots = nil
		current.TimeSlots = nil
	}
	if cmp.Equal(old, current, statusEqual...) {
		return nil
	}

	diff := &StatusDiff{ResourceID: current.ResourceID}

	if old.TotalCapacity != current.TotalCapacity {
		v := current.TotalCapacity
		diff.TotalCapacity = &v
	}
	if old.AvailableCapacity != current.AvailableCapacity {
		v := current.AvailableCapacity
		diff.AvailableCapacity = &v
	}
	if old.BookedCapacity != current.BookedCapacity {
		v := current.BookedCapacity
		diff.BookedCapacity = &v
	}
	if delta := current.Utilization - old.Utilization; delta > utilizationEpsilon || delta < -utilizationEpsilon {
		v := current.Utilization
		diff.Utilization = &v
	}

	if includeSlots {
		diff.AddedSlots, diff.RemovedSlotIDs, diff.UpdatedSlots = diffSlots(old.TimeSlots, current.TimeSlots)
	}

	if diff.isEmpty() {
		return nil
	}
	return diff
}

// diffSlots compares slot sets by id: present only in current is added,
// present only in old is removed, present in both with changed capacity is
// updated.
func diffSlots(old, current []inventory.SlotStatus) (added []inventory.SlotStatus, removed []uuid.UUID, updated []inventory.SlotStatus) {
	oldByID := make(map[uuid.UUID]inventory.SlotStatus, len(old))
	for _, slot := range old {
		oldByID[slot.ID] = slot
	}

	currentIDs := make(map[uuid.UUID]struct{}, len(current))
	for _, slot := range current {
		currentIDs[slot.ID] = struct{}{}

		prev, existed := oldByID[slot.ID]
		if !existed {
			added = append(added, slot)
			continue
		}
		if prev.Capacity != slot.Capacity || prev.AvailableCapacity != slot.AvailableCapacity {
			updated = append(updated, slot)
		}
	}

	for _, slot := range old {
		if _, stillThere := currentIDs[slot.ID]; !stillThere {
			removed = append(removed, slot.ID)
		}
	}

	return added, removed, updated
}
