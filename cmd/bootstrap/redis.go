package bootstrap

import (
	"context"
	"log/slog"

	"slotstream/internal/pkg/config"
	"slotstream/internal/realtime/notifier"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var BusModule = fx.Module("bus",
	fx.Provide(
		NewBus,
	),
)

// NewBus picks the event bus for this deployment: in-process only when no
// Redis address is configured, Redis pub/sub fan-out otherwise.
func NewBus(lc fx.Lifecycle, cfg config.Config) (notifier.Bus, error) {
	if cfg.Redis.Addr == "" {
		slog.Info("event bus: in-process only (no REDIS_ADDR configured)")
		return notifier.NewMemoryBus(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	bus := notifier.NewRedisBus(client, notifier.WithChannelPrefix(cfg.Redis.Prefix))
	slog.Info("event bus: redis pub/sub", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if err := bus.Close(); err != nil {
				slog.Warn("failed to close redis bus", "error", err.Error())
			}
			return client.Close()
		},
	})

	return bus, nil
}
