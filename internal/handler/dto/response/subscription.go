package response

import (
	"github.com/google/uuid"
)

type SubscribeResponse struct {
	SubscriptionID uuid.UUID `json:"subscriptionId"`
}

type UnsubscribeResponse struct {
	Removed bool `json:"removed"`
}
