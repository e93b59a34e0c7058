package bootstrap

import (
	"slotstream/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	BusModule,
	JWTModule,
	components.StoreModule,
	components.UseCaseModule,
	components.RealtimeModule,
	components.HandlerModule,
)
