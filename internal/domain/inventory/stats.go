package inventory

import (
	"time"

	"github.com/google/uuid"
)

// UtilizationPoint is one slot's share of the demand series.
type UtilizationPoint struct {
	SlotID      uuid.UUID `json:"slotId"`
	StartTime   time.Time `json:"startTime"`
	Utilization float64   `json:"utilization"`
}

type DemandStats struct {
	ResourceID       uuid.UUID          `json:"resourceId"`
	Series           []UtilizationPoint `json:"series"`
	MeanUtilization  float64            `json:"meanUtilization"`
	PeakUtilization  float64            `json:"peakUtilization"`
	PeakSlotID       uuid.UUID          `json:"peakSlotId,omitempty"`
	PredictedDemand  float64            `json:"predictedDemand"`
	FullyBookedSlots int                `json:"fullyBookedSlots"`
}

// trailingWindow bounds the prediction to recent demand rather than the
// whole series.
const trailingWindow = 8

// ComputeDemandStats derives a utilization series and a naive next-window
// prediction (trailing mean) from the slots of one resource.
func ComputeDemandStats(resourceID uuid.UUID, slots []*TimeSlot) DemandStats {
	stats := DemandStats{ResourceID: resourceID}
	if len(slots) == 0 {
		return stats
	}

	var sum float64
	for _, slot := range slots {
		u := slot.Utilization()
		stats.Series = append(stats.Series, UtilizationPoint{
			SlotID:      slot.ID(),
			StartTime:   slot.StartTime(),
			Utilization: u,
		})
		sum += u
		if u > stats.PeakUtilization {
			stats.PeakUtilization = u
			stats.PeakSlotID = slot.ID()
		}
		if slot.Available() == 0 {
			stats.FullyBookedSlots++
		}
	}
	stats.MeanUtilization = sum / float64(len(slots))

	tail := stats.Series
	if len(tail) > trailingWindow {
		tail = tail[len(tail)-trailingWindow:]
	}
	var tailSum float64
	for _, p := range tail {
		tailSum += p.Utilization
	}
	stats.PredictedDemand = tailSum / float64(len(tail))

	return stats
}
