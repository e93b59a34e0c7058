// Package transport carries broadcast messages to physical client
// connections. The SSE hub is the default implementation; the broadcaster
// only ever sees the Transport interface.
package transport

import (
	"context"
	"sync"

	"slotstream/internal/pkg/errs"
)

var (
	ErrConnectionNotFound = errs.New("connection not found")
	ErrConnectionBusy     = errs.New("connection send buffer full")
)

// sendBuffer bounds per-connection queueing; a consumer that cannot drain
// this many messages is dropped rather than allowed to stall the broadcaster.
const sendBuffer = 64

// SSEHub tracks server-sent-event connections by caller-chosen connection id.
type SSEHub struct {
	mu            sync.Mutex
	conns         map[string]chan []byte
	closeHandlers []func(connectionID string)
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		conns: make(map[string]chan []byte),
	}
}

// Send queues one message for a connection. A full buffer is an error so the
// caller can tear the subscription down instead of blocking.
func (h *SSEHub) Send(_ context.Context, connectionID string, payload []byte) error {
	h.mu.Lock()
	ch, ok := h.conns[connectionID]
	h.mu.Unlock()
	if !ok {
		return ErrConnectionNotFound
	}

	select {
	case ch <- payload:
		return nil
	default:
		return ErrConnectionBusy
	}
}

func (h *SSEHub) OnClose(handler func(connectionID string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeHandlers = append(h.closeHandlers, handler)
}

// Attach registers a connection and returns its message channel plus a detach
// function. Attaching an id that is already connected replaces the old
// connection, which then observes a closed channel.
func (h *SSEHub) Attach(connectionID string) (<-chan []byte, func()) {
	ch := make(chan []byte, sendBuffer)

	h.mu.Lock()
	if old, ok := h.conns[connectionID]; ok {
		close(old)
	}
	h.conns[connectionID] = ch
	h.mu.Unlock()

	detach := func() {
		h.mu.Lock()
		current, ok := h.conns[connectionID]
		if ok && current == ch {
			delete(h.conns, connectionID)
			close(ch)
		}
		handlers := make([]func(string), len(h.closeHandlers))
		copy(handlers, h.closeHandlers)
		h.mu.Unlock()

		if ok && current == ch {
			for _, handler := range handlers {
				handler(connectionID)
			}
		}
	}

	return ch, detach
}
