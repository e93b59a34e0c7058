package components

import (
	"context"

	"slotstream/internal/idempotency"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/realtime/notifier"
	"slotstream/internal/usecase/commands"
	"slotstream/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		fx.Annotate(
			notifier.NewPublisher,
			fx.As(new(commands.EventPublisher)),
			fx.As(new(idempotency.CompletionPublisher)),
		),
		commands.NewInventoryCommands,
		queries.NewInventoryQueries,
		idempotency.NewCoordinator,
	),
	fx.Invoke(startSweeper),
)

// startSweeper ties the idempotency sweep loop to the application lifetime.
func startSweeper(lc fx.Lifecycle, coordinator *idempotency.Coordinator) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				coordinator.RunSweeper(ctx)
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
