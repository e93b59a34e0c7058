// Package notifier is the change-event bus between the inventory engine and
// its subscribers. Delivery is at-least-once to subscribers within the same
// process (MemoryBus) or cluster (RedisBus); consumers must tolerate
// duplicates.
package notifier

import "context"

const (
	TopicInventoryChanged     = "inventory.changed"
	TopicIdempotencyCompleted = "idempotency.completed"
)

type Handler func(ctx context.Context, payload []byte)

type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe registers a handler and returns its unsubscribe function.
	Subscribe(topic string, handler Handler) (unsubscribe func())
}
