package notifier

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryBus fans events out to in-process subscribers. Handlers run on the
// publisher's goroutine; a panicking handler is isolated so one subscriber
// cannot take down the publish path.
type MemoryBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string]map[int]Handler),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	subs := make([]Handler, 0, len(b.handlers[topic]))
	for _, h := range b.handlers[topic] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	for _, h := range subs {
		b.dispatch(ctx, topic, h, payload)
	}
	return nil
}

func (b *MemoryBus) dispatch(ctx context.Context, topic string, h Handler, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "topic", topic, "panic", r)
		}
	}()
	h(ctx, payload)
}

func (b *MemoryBus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[topic][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[topic], id)
	}
}
