package components

import (
	"context"

	"slotstream/internal/realtime/broadcast"
	"slotstream/internal/realtime/transport"

	"go.uber.org/fx"
)

var RealtimeModule = fx.Module("realtime",
	fx.Provide(
		transport.NewSSEHub,
		func(hub *transport.SSEHub) broadcast.Transport { return hub },
		broadcast.NewBroadcaster,
	),
	fx.Invoke(startBroadcaster),
)

func startBroadcaster(lc fx.Lifecycle, broadcaster *broadcast.Broadcaster) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			broadcaster.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			broadcaster.Stop()
			return nil
		},
	})
}
