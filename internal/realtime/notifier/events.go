package notifier

import (
	"context"
	"encoding/json"
	"time"

	"slotstream/internal/pkg/errs"

	"github.com/google/uuid"
)

// InventoryChanged is published once per affected (tenant, resource) after a
// committed capacity mutation. SlotVersions carries the committed per-row
// versions so consumers can order events for one resource.
type InventoryChanged struct {
	TenantID     uuid.UUID           `json:"tenantId"`
	ResourceID   uuid.UUID           `json:"resourceId"`
	SlotVersions map[uuid.UUID]int64 `json:"slotVersions"`
	OccurredAt   time.Time           `json:"occurredAt"`
}

type IdempotencyCompleted struct {
	Scope uuid.UUID `json:"scope"`
	Key   uuid.UUID `json:"key"`
}

func DecodeInventoryChanged(payload []byte) (InventoryChanged, error) {
	var event InventoryChanged
	if err := json.Unmarshal(payload, &event); err != nil {
		return InventoryChanged{}, errs.Wrap(err, "failed to decode inventory change event")
	}
	return event, nil
}

func DecodeIdempotencyCompleted(payload []byte) (IdempotencyCompleted, error) {
	var event IdempotencyCompleted
	if err := json.Unmarshal(payload, &event); err != nil {
		return IdempotencyCompleted{}, errs.Wrap(err, "failed to decode idempotency completion event")
	}
	return event, nil
}

// Publisher binds typed events to bus topics.
type Publisher struct {
	bus Bus
}

func NewPublisher(bus Bus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) PublishInventoryChanged(ctx context.Context, event InventoryChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "failed to encode inventory change event")
	}
	return p.bus.Publish(ctx, TopicInventoryChanged, payload)
}

func (p *Publisher) PublishIdempotencyCompleted(ctx context.Context, event IdempotencyCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "failed to encode idempotency completion event")
	}
	return p.bus.Publish(ctx, TopicIdempotencyCompleted, payload)
}
