package idempotency

import (
	"sync"

	"github.com/google/uuid"
)

type waiterKey struct {
	scope uuid.UUID
	key   uuid.UUID
}

// waiterRegistry wakes blocked AwaitCompletion callers via channel close,
// never by polling. One shared channel per (scope, key) in flight.
type waiterRegistry struct {
	mu       sync.Mutex
	channels map[waiterKey]chan struct{}
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{
		channels: make(map[waiterKey]chan struct{}),
	}
}

func (r *waiterRegistry) channel(scope, key uuid.UUID) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := waiterKey{scope: scope, key: key}
	ch, ok := r.channels[k]
	if !ok {
		ch = make(chan struct{})
		r.channels[k] = ch
	}
	return ch
}

// notify releases every waiter for the key; closing is idempotent via the
// map delete, and late notifies for unknown keys are no-ops.
func (r *waiterRegistry) notify(scope, key uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := waiterKey{scope: scope, key: key}
	if ch, ok := r.channels[k]; ok {
		close(ch)
		delete(r.channels, k)
	}
}
