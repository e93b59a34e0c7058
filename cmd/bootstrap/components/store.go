package components

import (
	"slotstream/internal/idempotency"
	"slotstream/internal/infra/store"
	"slotstream/internal/infra/uow"
	"slotstream/internal/usecase/commands"
	"slotstream/internal/usecase/queries"

	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		uow.NewPostgresUoW,
		fx.Annotate(
			store.NewSlotStore,
			fx.As(new(commands.SlotStore)),
			fx.As(new(queries.SlotReadStore)),
		),
		fx.Annotate(
			store.NewReservationStore,
			fx.As(new(commands.ReservationStore)),
		),
		fx.Annotate(
			store.NewIdempotencyStore,
			fx.As(new(idempotency.Store)),
		),
	),
)
