package inventory

import (
	"time"

	"github.com/google/uuid"
)

// SlotStatus is the per-slot slice of an InventoryStatus.
type SlotStatus struct {
	ID                uuid.UUID `json:"id"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	Capacity          int32     `json:"capacity"`
	AvailableCapacity int32     `json:"availableCapacity"`
	Version           int64     `json:"version"`
}

// Status is the derived, never-persisted view the broadcaster diffs against.
type Status struct {
	ResourceID        uuid.UUID    `json:"resourceId"`
	TotalCapacity     int32        `json:"totalCapacity"`
	AvailableCapacity int32        `json:"availableCapacity"`
	BookedCapacity    int32        `json:"bookedCapacity"`
	Utilization       float64      `json:"utilization"`
	TimeSlots         []SlotStatus `json:"timeSlots,omitempty"`
}

// BuildStatus aggregates slots of a single resource into its status view.
// Slots must all belong to the same resource; ordering is preserved.
func BuildStatus(resourceID uuid.UUID, slots []*TimeSlot) Status {
	st := Status{ResourceID: resourceID}
	for _, slot := range slots {
		st.TotalCapacity += slot.Capacity()
		st.AvailableCapacity += slot.Available()
		st.TimeSlots = append(st.TimeSlots, SlotStatus{
			ID:                slot.ID(),
			StartTime:         slot.StartTime(),
			EndTime:           slot.EndTime(),
			Capacity:          slot.Capacity(),
			AvailableCapacity: slot.Available(),
			Version:           slot.Version(),
		})
	}
	st.BookedCapacity = st.TotalCapacity - st.AvailableCapacity
	if st.TotalCapacity > 0 {
		st.Utilization = float64(st.BookedCapacity) / float64(st.TotalCapacity)
	}
	return st
}
