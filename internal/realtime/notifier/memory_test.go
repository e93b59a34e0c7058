//go:build unit

package notifier_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"slotstream/internal/realtime/notifier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to every subscriber of the topic", func(t *testing.T) {
		bus := notifier.NewMemoryBus()

		var mu sync.Mutex
		var received []string
		for _, name := range []string{"a", "b"} {
			bus.Subscribe("topic", func(_ context.Context, payload []byte) {
				mu.Lock()
				defer mu.Unlock()
				received = append(received, name+":"+string(payload))
			})
		}
		bus.Subscribe("other", func(context.Context, []byte) {
			t.Error("handler on unrelated topic must not fire")
		})

		require.NoError(t, bus.Publish(ctx, "topic", []byte("x")))

		mu.Lock()
		defer mu.Unlock()
		assert.ElementsMatch(t, []string{"a:x", "b:x"}, received)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := notifier.NewMemoryBus()

		calls := 0
		unsubscribe := bus.Subscribe("topic", func(context.Context, []byte) {
			calls++
		})

		require.NoError(t, bus.Publish(ctx, "topic", nil))
		unsubscribe()
		require.NoError(t, bus.Publish(ctx, "topic", nil))

		assert.Equal(t, 1, calls)
	})

	t.Run("a panicking handler does not break fan-out", func(t *testing.T) {
		bus := notifier.NewMemoryBus()

		bus.Subscribe("topic", func(context.Context, []byte) {
			panic("boom")
		})
		delivered := false
		bus.Subscribe("topic", func(context.Context, []byte) {
			delivered = true
		})

		require.NoError(t, bus.Publish(ctx, "topic", nil))
		assert.True(t, delivered)
	})

	t.Run("publish without subscribers succeeds", func(t *testing.T) {
		bus := notifier.NewMemoryBus()
		require.NoError(t, bus.Publish(ctx, "topic", []byte("x")))
	})
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("inventory change round-trips through the bus", func(t *testing.T) {
		bus := notifier.NewMemoryBus()
		publisher := notifier.NewPublisher(bus)

		var decoded notifier.InventoryChanged
		bus.Subscribe(notifier.TopicInventoryChanged, func(_ context.Context, payload []byte) {
			event, err := notifier.DecodeInventoryChanged(payload)
			require.NoError(t, err)
			decoded = event
		})

		slotID := uuid.New()
		event := notifier.InventoryChanged{
			TenantID:     uuid.New(),
			ResourceID:   uuid.New(),
			SlotVersions: map[uuid.UUID]int64{slotID: 7},
			OccurredAt:   time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		}
		require.NoError(t, publisher.PublishInventoryChanged(ctx, event))

		assert.Equal(t, event.TenantID, decoded.TenantID)
		assert.Equal(t, event.ResourceID, decoded.ResourceID)
		assert.Equal(t, int64(7), decoded.SlotVersions[slotID])
		assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
	})

	t.Run("idempotency completion round-trips through the bus", func(t *testing.T) {
		bus := notifier.NewMemoryBus()
		publisher := notifier.NewPublisher(bus)

		var raw []byte
		bus.Subscribe(notifier.TopicIdempotencyCompleted, func(_ context.Context, payload []byte) {
			raw = payload
		})

		event := notifier.IdempotencyCompleted{Scope: uuid.New(), Key: uuid.New()}
		require.NoError(t, publisher.PublishIdempotencyCompleted(ctx, event))

		decoded, err := notifier.DecodeIdempotencyCompleted(raw)
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	})

	t.Run("malformed payload is rejected", func(t *testing.T) {
		_, err := notifier.DecodeInventoryChanged([]byte("{"))
		require.Error(t, err)

		valid, err := json.Marshal(notifier.InventoryChanged{})
		require.NoError(t, err)
		_, err = notifier.DecodeInventoryChanged(valid)
		require.NoError(t, err)
	})
}
