//go:build unit

package broadcast

import (
	"testing"

	"slotstream/internal/domain/inventory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusFixture(resourceID uuid.UUID, total, available int32) inventory.Status {
	status := inventory.Status{
		ResourceID:        resourceID,
		TotalCapacity:     total,
		AvailableCapacity: available,
		BookedCapacity:    total - available,
	}
	if total > 0 {
		status.Utilization = float64(status.BookedCapacity) / float64(total)
	}
	return status
}

func TestComputeDiff(t *testing.T) {
	resourceID := uuid.New()

	t.Run("identical statuses produce no diff", func(t *testing.T) {
		old := statusFixture(resourceID, 10, 4)
		current := statusFixture(resourceID, 10, 4)

		assert.Nil(t, computeDiff(old, current, false))
	})

	t.Run("utilization noise below epsilon is not a change", func(t *testing.T) {
		old := statusFixture(resourceID, 10, 4)
		current := statusFixture(resourceID, 10, 4)
		current.Utilization = old.Utilization + 1e-9

		assert.Nil(t, computeDiff(old, current, false))
	})

	t.Run("only changed scalar fields are set", func(t *testing.T) {
		old := statusFixture(resourceID, 10, 4)
		current := statusFixture(resourceID, 10, 3)

		diff := computeDiff(old, current, false)
		require.NotNil(t, diff)

		assert.Equal(t, resourceID, diff.ResourceID)
		assert.Nil(t, diff.TotalCapacity)
		require.NotNil(t, diff.AvailableCapacity)
		assert.Equal(t, int32(3), *diff.AvailableCapacity)
		require.NotNil(t, diff.BookedCapacity)
		assert.Equal(t, int32(7), *diff.BookedCapacity)
		require.NotNil(t, diff.Utilization)
		assert.InDelta(t, 0.7, *diff.Utilization, 1e-9)
	})

	t.Run("slot changes ignored without detail", func(t *testing.T) {
		old := statusFixture(resourceID, 10, 4)
		current := statusFixture(resourceID, 10, 4)
		current.TimeSlots = []inventory.SlotStatus{{ID: uuid.New(), Capacity: 10, AvailableCapacity: 4}}

		assert.Nil(t, computeDiff(old, current, false))
	})

	t.Run("diff is idempotent", func(t *testing.T) {
		old := statusFixture(resourceID, 10, 4)
		current := statusFixture(resourceID, 10, 2)

		first := computeDiff(old, current, false)
		require.NotNil(t, first)

		// Applying the same new state again yields silence.
		assert.Nil(t, computeDiff(current, current, false))
	})
}

func TestComputeDiffSlotDetail(t *testing.T) {
	resourceID := uuid.New()
	slotA := inventory.SlotStatus{ID: uuid.New(), Capacity: 10, AvailableCapacity: 5, Version: 1}
	slotB := inventory.SlotStatus{ID: uuid.New(), Capacity: 10, AvailableCapacity: 10, Version: 1}

	t.Run("added removed and updated slots", func(t *testing.T) {
		old := statusFixture(resourceID, 20, 15)
		old.TimeSlots = []inventory.SlotStatus{slotA, slotB}

		updatedA := slotA
		updatedA.AvailableCapacity = 2
		updatedA.Version = 2
		slotC := inventory.SlotStatus{ID: uuid.New(), Capacity: 5, AvailableCapacity: 5, Version: 1}

		current := statusFixture(resourceID, 15, 7)
		current.TimeSlots = []inventory.SlotStatus{updatedA, slotC}

		diff := computeDiff(old, current, true)
		require.NotNil(t, diff)

		require.Len(t, diff.AddedSlots, 1)
		assert.Equal(t, slotC.ID, diff.AddedSlots[0].ID)

		require.Len(t, diff.RemovedSlotIDs, 1)
		assert.Equal(t, slotB.ID, diff.RemovedSlotIDs[0])

		require.Len(t, diff.UpdatedSlots, 1)
		assert.Equal(t, slotA.ID, diff.UpdatedSlots[0].ID)
		assert.Equal(t, int32(2), diff.UpdatedSlots[0].AvailableCapacity)
	})

	t.Run("unchanged slot sets stay silent", func(t *testing.T) {
		old := statusFixture(resourceID, 20, 15)
		old.TimeSlots = []inventory.SlotStatus{slotA, slotB}
		current := statusFixture(resourceID, 20, 15)
		current.TimeSlots = []inventory.SlotStatus{slotA, slotB}

		assert.Nil(t, computeDiff(old, current, true))
	})
}
