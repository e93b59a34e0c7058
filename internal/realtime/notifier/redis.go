package notifier

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus bridges the local bus across instances: publishes go to a Redis
// channel, and every instance (the publisher included, via self-receive)
// re-dispatches received messages to its local subscribers.
type RedisBus struct {
	rdb    *redis.Client
	local  *MemoryBus
	prefix string

	mu     sync.Mutex
	subs   map[string]*redis.PubSub
	cancel context.CancelFunc
}

type RedisBusOption func(*RedisBus)

func WithChannelPrefix(prefix string) RedisBusOption {
	return func(b *RedisBus) {
		b.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisBus(rdb *redis.Client, opts ...RedisBusOption) *RedisBus {
	b := &RedisBus{
		rdb:    rdb,
		local:  NewMemoryBus(),
		prefix: "slotstream",
		subs:   make(map[string]*redis.PubSub),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *RedisBus) channel(topic string) string {
	return b.prefix + ":" + topic
}

func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.rdb.Publish(ctx, b.channel(topic), payload).Err()
}

func (b *RedisBus) Subscribe(topic string, handler Handler) func() {
	unsubscribe := b.local.Subscribe(topic, handler)
	b.ensureListener(topic)
	return unsubscribe
}

// ensureListener starts exactly one Redis receive loop per topic.
func (b *RedisBus) ensureListener(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[topic]; ok {
		return
	}

	ctx := context.Background()
	if b.cancel == nil {
		ctx, b.cancel = context.WithCancel(ctx)
	}

	ps := b.rdb.Subscribe(ctx, b.channel(topic))
	b.subs[topic] = ps

	go func() {
		for msg := range ps.Channel() {
			if err := b.local.Publish(ctx, topic, []byte(msg.Payload)); err != nil {
				slog.Warn("failed to dispatch redis event locally", "topic", topic, "error", err.Error())
			}
		}
	}()
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}
	for topic, ps := range b.subs {
		if err := ps.Close(); err != nil {
			slog.Warn("failed to close redis subscription", "topic", topic, "error", err.Error())
		}
		delete(b.subs, topic)
	}
	return nil
}
