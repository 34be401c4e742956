package worker

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DeliveryJob is one pending delivery of one event occurrence to one
// subscription. It carries a read-only snapshot of the subscription; the
// payload buffer is shared across all jobs fanned out from the same event and
// must not be mutated.
type DeliveryJob struct {
	EventID            string          `json:"event_id"`
	EventType          string          `json:"event_type"`
	SubscriptionID     uuid.UUID       `json:"subscription_id"`
	TargetURL          string          `json:"target_url"`
	Secret             string          `json:"secret,omitempty"`
	Payload            json.RawMessage `json:"payload"`
	RateLimitPerSecond int             `json:"rate_limit_per_second"`
}
