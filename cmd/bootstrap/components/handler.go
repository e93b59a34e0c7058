package components

import (
	"slotstream/internal/handler"
	"slotstream/internal/handler/api"
	"slotstream/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewInventoryHandler,
		api.NewSubscriptionHandler,
		api.NewStreamHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
