package response

import (
	"time"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReserveResponse struct {
	ReservationIDs []uuid.UUID `json:"reservationIds"`
}

func FromReserveResult(result *commands.ReserveResult) *ReserveResponse {
	return &ReserveResponse{
		ReservationIDs: result.ReservationIDs,
	}
}

type ReleaseResponse struct {
	ReleasedCount int `json:"releasedCount"`
}

func FromReleaseResult(result *commands.ReleaseResult) *ReleaseResponse {
	return &ReleaseResponse{
		ReleasedCount: result.ReleasedCount,
	}
}

type SlotStatusResponse struct {
	ID                uuid.UUID `json:"id"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	Capacity          int32     `json:"capacity"`
	AvailableCapacity int32     `json:"availableCapacity"`
	Version           int64     `json:"version"`
}

type StatusResponse struct {
	ResourceID        uuid.UUID            `json:"resourceId"`
	TotalCapacity     int32                `json:"totalCapacity"`
	AvailableCapacity int32                `json:"availableCapacity"`
	BookedCapacity    int32                `json:"bookedCapacity"`
	Utilization       float64              `json:"utilization"`
	TimeSlots         []SlotStatusResponse `json:"timeSlots,omitempty"`
}

func FromStatuses(statuses []inventory.Status) ([]StatusResponse, error) {
	result := make([]StatusResponse, 0, len(statuses))
	if err := copier.Copy(&result, &statuses); err != nil {
		return nil, err
	}
	return result, nil
}

type UtilizationPointResponse struct {
	SlotID      uuid.UUID `json:"slotId"`
	StartTime   time.Time `json:"startTime"`
	Utilization float64   `json:"utilization"`
}

type DemandStatsResponse struct {
	ResourceID       uuid.UUID                  `json:"resourceId"`
	Series           []UtilizationPointResponse `json:"series"`
	MeanUtilization  float64                    `json:"meanUtilization"`
	PeakUtilization  float64                    `json:"peakUtilization"`
	PeakSlotID       uuid.UUID                  `json:"peakSlotId,omitempty"`
	PredictedDemand  float64                    `json:"predictedDemand"`
	FullyBookedSlots int                        `json:"fullyBookedSlots"`
}

func FromDemandStats(stats *inventory.DemandStats) (*DemandStatsResponse, error) {
	var result DemandStatsResponse
	if err := copier.Copy(&result, stats); err != nil {
		return nil, err
	}
	return &result, nil
}
