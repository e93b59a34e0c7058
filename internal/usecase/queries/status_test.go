//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"slotstream/internal/infra/store"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/usecase/queries"
	"slotstream/tests/common/builder"
	"slotstream/tests/common/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readCall struct {
	tenantID    uuid.UUID
	resourceIDs []uuid.UUID
	from        time.Time
	to          time.Time
}

// fakeSlotReadStore records each call and returns canned rows.
type fakeSlotReadStore struct {
	rows  []store.SlotRow
	err   error
	calls []readCall
}

func (f *fakeSlotReadStore) FindByResources(_ context.Context, _ store.DBTX, tenantID uuid.UUID, resourceIDs []uuid.UUID, from, to time.Time) ([]store.SlotRow, error) {
	f.calls = append(f.calls, readCall{tenantID: tenantID, resourceIDs: resourceIDs, from: from, to: to})
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func newQueriesFixture(rows []store.SlotRow) (*fakeSlotReadStore, queries.InventoryQueries) {
	readStore := &fakeSlotReadStore{rows: rows}
	clk := clock.NewMockClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	q := queries.NewInventoryQueries(dbtest.NewStubUoW(), readStore, clk)
	return readStore, q
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("aggregates slots of one resource", func(t *testing.T) {
		t.Parallel()

		resourceID := uuid.New()
		rows := []store.SlotRow{
			builder.NewSlotBuilder().WithTenantID(tenantID).WithResourceID(resourceID).
				WithCapacity(10).WithAvailable(6).WithSlotIndex(0).BuildRow(),
			builder.NewSlotBuilder().WithTenantID(tenantID).WithResourceID(resourceID).
				WithCapacity(10).WithAvailable(8).WithSlotIndex(1).BuildRow(),
		}
		_, q := newQueriesFixture(rows)

		statuses, err := q.GetStatus(context.Background(), tenantID, []uuid.UUID{resourceID}, queries.Window{})
		require.NoError(t, err)
		require.Len(t, statuses, 1)

		status := statuses[0]
		assert.Equal(t, resourceID, status.ResourceID)
		assert.Equal(t, int32(20), status.TotalCapacity)
		assert.Equal(t, int32(14), status.AvailableCapacity)
		assert.Equal(t, int32(6), status.BookedCapacity)
		assert.InDelta(t, 0.3, status.Utilization, 1e-9)
		assert.Len(t, status.TimeSlots, 2)
	})

	t.Run("reports empty status for a resource without slots", func(t *testing.T) {
		t.Parallel()

		withSlots := uuid.New()
		withoutSlots := uuid.New()
		rows := []store.SlotRow{
			builder.NewSlotBuilder().WithTenantID(tenantID).WithResourceID(withSlots).
				WithCapacity(4).WithAvailable(1).BuildRow(),
		}
		_, q := newQueriesFixture(rows)

		statuses, err := q.GetStatus(context.Background(), tenantID,
			[]uuid.UUID{withSlots, withoutSlots}, queries.Window{})
		require.NoError(t, err)
		require.Len(t, statuses, 2)

		assert.Equal(t, withSlots, statuses[0].ResourceID)
		assert.Equal(t, int32(4), statuses[0].TotalCapacity)

		assert.Equal(t, withoutSlots, statuses[1].ResourceID)
		assert.Equal(t, int32(0), statuses[1].TotalCapacity)
		assert.Equal(t, float64(0), statuses[1].Utilization)
		assert.Empty(t, statuses[1].TimeSlots)
	})

	t.Run("normalizes a zero window to one month from today", func(t *testing.T) {
		t.Parallel()

		readStore, q := newQueriesFixture(nil)

		_, err := q.GetStatus(context.Background(), tenantID, []uuid.UUID{uuid.New()}, queries.Window{})
		require.NoError(t, err)

		require.Len(t, readStore.calls, 1)
		assert.Equal(t, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), readStore.calls[0].from)
		assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), readStore.calls[0].to)
	})

	t.Run("passes an explicit window through unchanged", func(t *testing.T) {
		t.Parallel()

		readStore, q := newQueriesFixture(nil)
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

		_, err := q.GetStatus(context.Background(), tenantID, []uuid.UUID{uuid.New()},
			queries.Window{From: from, To: to})
		require.NoError(t, err)

		require.Len(t, readStore.calls, 1)
		assert.Equal(t, from, readStore.calls[0].from)
		assert.Equal(t, to, readStore.calls[0].to)
	})

	t.Run("rejects an empty resource list", func(t *testing.T) {
		t.Parallel()

		readStore, q := newQueriesFixture(nil)

		_, err := q.GetStatus(context.Background(), tenantID, nil, queries.Window{})
		require.ErrorIs(t, err, errs.ErrDomainValidation)
		assert.Empty(t, readStore.calls)
	})

	t.Run("propagates store failures", func(t *testing.T) {
		t.Parallel()

		readStore, q := newQueriesFixture(nil)
		readStore.err = errs.New("connection reset")

		_, err := q.GetStatus(context.Background(), tenantID, []uuid.UUID{uuid.New()}, queries.Window{})
		require.ErrorContains(t, err, "connection reset")
	})
}

func TestGetDemandStats(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("derives the utilization series and peak", func(t *testing.T) {
		t.Parallel()

		resourceID := uuid.New()
		fullSlot := builder.NewSlotBuilder().WithTenantID(tenantID).WithResourceID(resourceID).
			WithCapacity(10).WithAvailable(0).WithSlotIndex(1).BuildRow()
		rows := []store.SlotRow{
			builder.NewSlotBuilder().WithTenantID(tenantID).WithResourceID(resourceID).
				WithCapacity(10).WithAvailable(6).WithSlotIndex(0).BuildRow(),
			fullSlot,
		}
		_, q := newQueriesFixture(rows)

		stats, err := q.GetDemandStats(context.Background(), tenantID, resourceID, queries.Window{})
		require.NoError(t, err)

		assert.Equal(t, resourceID, stats.ResourceID)
		require.Len(t, stats.Series, 2)
		assert.InDelta(t, 0.7, stats.MeanUtilization, 1e-9)
		assert.InDelta(t, 1.0, stats.PeakUtilization, 1e-9)
		assert.Equal(t, fullSlot.ID, stats.PeakSlotID)
		assert.Equal(t, 1, stats.FullyBookedSlots)
		assert.InDelta(t, 0.7, stats.PredictedDemand, 1e-9)
	})

	t.Run("returns zero stats when no slots fall in the window", func(t *testing.T) {
		t.Parallel()

		resourceID := uuid.New()
		_, q := newQueriesFixture(nil)

		stats, err := q.GetDemandStats(context.Background(), tenantID, resourceID, queries.Window{})
		require.NoError(t, err)

		assert.Equal(t, resourceID, stats.ResourceID)
		assert.Empty(t, stats.Series)
		assert.Equal(t, float64(0), stats.MeanUtilization)
		assert.Equal(t, 0, stats.FullyBookedSlots)
	})
}
