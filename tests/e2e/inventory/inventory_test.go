//go:build e2e

package inventory_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"slotstream/internal/infra/store"
	"slotstream/tests/common/authtest"
	"slotstream/tests/common/builder"
	"slotstream/tests/common/dbtest"
	"slotstream/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	reserveURL = "/api/inventory/reservations"
	releaseURL = "/api/inventory/releases"
	statusURL  = "/api/inventory/status"
)

type inventorySuite struct {
	e2e.SharedSuite
	tenantID uuid.UUID
	actorID  uuid.UUID
	token    string
}

func TestInventorySuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(inventorySuite))
}

func (s *inventorySuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.tenantID = uuid.New()
	s.actorID = uuid.New()
	s.token = authtest.SignToken(s.T(), s.Config.JWT.Secret, s.tenantID, s.actorID)
}

// insertSlot places the slot inside the default query window, which starts at
// the current day.
func (s *inventorySuite) insertSlot(capacity, available int32) store.SlotRow {
	start := time.Now().UTC().Truncate(time.Hour).Add(time.Hour)
	row := builder.NewSlotBuilder().
		WithTenantID(s.tenantID).
		WithCapacity(capacity).
		WithAvailable(available).
		WithWindow(start, start.Add(time.Hour)).
		BuildRow()
	require.NoError(s.T(), dbtest.InsertSlot(s.DB, row))
	return row
}

func (s *inventorySuite) request(method, path string, body any, idempotencyKey string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", s.token)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func reserveBody(slot store.SlotRow, units int32) map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{
				"resource_id":    slot.ResourceID,
				"time_slot_id":   slot.ID,
				"capacity_units": units,
			},
		},
	}
}

func (s *inventorySuite) TestReserve() {
	s.Run("reserves capacity and persists the reservation", func() {
		slot := s.insertSlot(10, 10)

		rec := s.request(http.MethodPost, reserveURL, reserveBody(slot, 3), uuid.NewString())
		require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			ReservationIDs []uuid.UUID `json:"reservationIds"`
		}
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(s.T(), resp.ReservationIDs, 1)

		available, version, err := dbtest.SlotState(s.DB, slot.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int32(7), available)
		require.Equal(s.T(), int64(2), version)

		confirmed, err := dbtest.CountReservations(s.DB, slot.ID, store.ReservationStatusConfirmed)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int64(1), confirmed)
	})

	s.Run("rejects a request without an idempotency key", func() {
		slot := s.insertSlot(10, 10)

		rec := s.request(http.MethodPost, reserveURL, reserveBody(slot, 1), "")
		require.Equal(s.T(), http.StatusBadRequest, rec.Code)
	})

	s.Run("concurrent reserves never oversell", func() {
		slot := s.insertSlot(10, 10)

		const attempts = 20
		var wg sync.WaitGroup
		codes := make(chan int, attempts)

		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := s.request(http.MethodPost, reserveURL, reserveBody(slot, 1), uuid.NewString())
				codes <- rec.Code
			}()
		}
		wg.Wait()
		close(codes)

		created, conflicted := 0, 0
		for code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			default:
				s.T().Fatalf("unexpected status code %d", code)
			}
		}
		require.Equal(s.T(), 10, created)
		require.Equal(s.T(), 10, conflicted)

		available, _, err := dbtest.SlotState(s.DB, slot.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int32(0), available)
	})

	s.Run("duplicate idempotency key replays the response", func() {
		slot := s.insertSlot(10, 10)
		key := uuid.NewString()

		first := s.request(http.MethodPost, reserveURL, reserveBody(slot, 2), key)
		require.Equal(s.T(), http.StatusCreated, first.Code)

		second := s.request(http.MethodPost, reserveURL, reserveBody(slot, 2), key)
		require.Equal(s.T(), http.StatusCreated, second.Code)
		require.Equal(s.T(), "true", second.Header().Get("Idempotency-Replayed"))
		require.JSONEq(s.T(), first.Body.String(), second.Body.String())

		// The effect happened exactly once.
		available, _, err := dbtest.SlotState(s.DB, slot.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int32(8), available)
	})

	s.Run("idempotency key reuse with a different body conflicts", func() {
		slot := s.insertSlot(10, 10)
		key := uuid.NewString()

		first := s.request(http.MethodPost, reserveURL, reserveBody(slot, 2), key)
		require.Equal(s.T(), http.StatusCreated, first.Code)

		second := s.request(http.MethodPost, reserveURL, reserveBody(slot, 3), key)
		require.Equal(s.T(), http.StatusConflict, second.Code)
	})

	s.Run("multi-slot reservation is all or nothing", func() {
		full := s.insertSlot(10, 10)
		empty := s.insertSlot(10, 0)

		body := map[string]any{
			"items": []map[string]any{
				{"resource_id": full.ResourceID, "time_slot_id": full.ID, "capacity_units": 1},
				{"resource_id": empty.ResourceID, "time_slot_id": empty.ID, "capacity_units": 1},
			},
		}
		rec := s.request(http.MethodPost, reserveURL, body, uuid.NewString())
		require.Equal(s.T(), http.StatusConflict, rec.Code)

		// The slot with room must be untouched after the rollback.
		available, _, err := dbtest.SlotState(s.DB, full.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int32(10), available)
	})

	s.Run("rejects an unauthenticated request", func() {
		slot := s.insertSlot(10, 10)

		var buf bytes.Buffer
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(reserveBody(slot, 1)))
		req := httptest.NewRequest(http.MethodPost, reserveURL, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", uuid.NewString())

		rec := httptest.NewRecorder()
		s.Router.ServeHTTP(rec, req)
		require.Equal(s.T(), http.StatusUnauthorized, rec.Code)
	})
}

func (s *inventorySuite) TestRelease() {
	s.Run("release restores capacity and is idempotent", func() {
		slot := s.insertSlot(10, 10)

		rec := s.request(http.MethodPost, reserveURL, reserveBody(slot, 4), uuid.NewString())
		require.Equal(s.T(), http.StatusCreated, rec.Code)

		var reserved struct {
			ReservationIDs []uuid.UUID `json:"reservationIds"`
		}
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &reserved))

		releaseBody := map[string]any{"reservation_ids": reserved.ReservationIDs}

		first := s.request(http.MethodPost, releaseURL, releaseBody, "")
		require.Equal(s.T(), http.StatusOK, first.Code, first.Body.String())
		var released struct {
			ReleasedCount int `json:"releasedCount"`
		}
		require.NoError(s.T(), json.Unmarshal(first.Body.Bytes(), &released))
		require.Equal(s.T(), 1, released.ReleasedCount)

		available, _, err := dbtest.SlotState(s.DB, slot.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int32(10), available)

		// A second release of the same ids cancels nothing further.
		second := s.request(http.MethodPost, releaseURL, releaseBody, "")
		require.Equal(s.T(), http.StatusOK, second.Code)
		require.NoError(s.T(), json.Unmarshal(second.Body.Bytes(), &released))
		require.Equal(s.T(), 0, released.ReleasedCount)

		available, _, err = dbtest.SlotState(s.DB, slot.ID)
		require.NoError(s.T(), err)
		require.Equal(s.T(), int32(10), available)
	})

	s.Run("unknown reservation id is rejected", func() {
		body := map[string]any{"reservation_ids": []uuid.UUID{uuid.New()}}

		rec := s.request(http.MethodPost, releaseURL, body, "")
		require.Equal(s.T(), http.StatusNotFound, rec.Code)
	})
}

func (s *inventorySuite) TestStatus() {
	s.Run("status reflects committed reservations", func() {
		slot := s.insertSlot(10, 10)

		rec := s.request(http.MethodPost, reserveURL, reserveBody(slot, 4), uuid.NewString())
		require.Equal(s.T(), http.StatusCreated, rec.Code)

		statusRec := s.request(http.MethodGet,
			fmt.Sprintf("%s?resource_id=%s", statusURL, slot.ResourceID), nil, "")
		require.Equal(s.T(), http.StatusOK, statusRec.Code, statusRec.Body.String())

		var statuses []struct {
			ResourceID        uuid.UUID `json:"resourceId"`
			TotalCapacity     int32     `json:"totalCapacity"`
			AvailableCapacity int32     `json:"availableCapacity"`
			BookedCapacity    int32     `json:"bookedCapacity"`
			Utilization       float64   `json:"utilization"`
		}
		require.NoError(s.T(), json.Unmarshal(statusRec.Body.Bytes(), &statuses))
		require.Len(s.T(), statuses, 1)
		require.Equal(s.T(), slot.ResourceID, statuses[0].ResourceID)
		require.Equal(s.T(), int32(10), statuses[0].TotalCapacity)
		require.Equal(s.T(), int32(6), statuses[0].AvailableCapacity)
		require.Equal(s.T(), int32(4), statuses[0].BookedCapacity)
		require.InDelta(s.T(), 0.4, statuses[0].Utilization, 1e-9)
	})

	s.Run("status without resource ids is rejected", func() {
		rec := s.request(http.MethodGet, statusURL, nil, "")
		require.Equal(s.T(), http.StatusBadRequest, rec.Code)
	})
}
