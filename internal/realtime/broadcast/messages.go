package broadcast

import (
	"encoding/json"
	"time"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/pkg/errs"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageFullUpdate         MessageType = "full_update"
	MessageDifferentialUpdate MessageType = "differential_update"
	MessageHeartbeat          MessageType = "heartbeat"
	MessageError              MessageType = "error"
)

type Envelope struct {
	Type           MessageType `json:"type"`
	SubscriptionID uuid.UUID   `json:"subscriptionId"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        any         `json:"payload,omitempty"`
}

type FullUpdatePayload struct {
	Statuses []inventory.Status `json:"statuses"`
}

type DiffUpdatePayload struct {
	Changes []StatusDiff `json:"changes"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encodeEnvelope(e Envelope) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode broadcast message")
	}
	return payload, nil
}
