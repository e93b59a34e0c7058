//go:build unit

package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEHub(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to an attached connection", func(t *testing.T) {
		hub := NewSSEHub()
		messages, detach := hub.Attach("conn-1")
		defer detach()

		require.NoError(t, hub.Send(ctx, "conn-1", []byte("hello")))
		assert.Equal(t, []byte("hello"), <-messages)
	})

	t.Run("unknown connection", func(t *testing.T) {
		hub := NewSSEHub()
		require.ErrorIs(t, hub.Send(ctx, "nope", nil), ErrConnectionNotFound)
	})

	t.Run("detach closes the channel and fires close handlers", func(t *testing.T) {
		hub := NewSSEHub()
		var closed []string
		hub.OnClose(func(connectionID string) {
			closed = append(closed, connectionID)
		})

		messages, detach := hub.Attach("conn-1")
		detach()

		_, open := <-messages
		assert.False(t, open)
		assert.Equal(t, []string{"conn-1"}, closed)
		require.ErrorIs(t, hub.Send(ctx, "conn-1", nil), ErrConnectionNotFound)
	})

	t.Run("detach is idempotent", func(t *testing.T) {
		hub := NewSSEHub()
		calls := 0
		hub.OnClose(func(string) { calls++ })

		_, detach := hub.Attach("conn-1")
		detach()
		detach()

		assert.Equal(t, 1, calls)
	})

	t.Run("full buffer reports a busy connection", func(t *testing.T) {
		hub := NewSSEHub()
		_, detach := hub.Attach("conn-1")
		defer detach()

		// Nothing drains the channel, so the buffer eventually fills.
		for range sendBuffer {
			require.NoError(t, hub.Send(ctx, "conn-1", []byte("x")))
		}
		require.ErrorIs(t, hub.Send(ctx, "conn-1", []byte("x")), ErrConnectionBusy)
	})

	t.Run("reattach replaces the previous connection", func(t *testing.T) {
		hub := NewSSEHub()
		old, _ := hub.Attach("conn-1")
		fresh, detach := hub.Attach("conn-1")
		defer detach()

		_, open := <-old
		assert.False(t, open)

		require.NoError(t, hub.Send(ctx, "conn-1", []byte("hello")))
		assert.Equal(t, []byte("hello"), <-fresh)
	})
}
