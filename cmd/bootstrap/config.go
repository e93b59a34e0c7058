package bootstrap

import (
	"slotstream/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.IdempotencyConfig { return cfg.Idempotency },
		func(cfg config.Config) config.BroadcastConfig { return cfg.Broadcast },
	),
)
