package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookSubscription is a registered interest of one external endpoint in one
// event type. Inactive subscriptions are kept but excluded from dispatch.
type WebhookSubscription struct {
	ID                 uuid.UUID `json:"id"`
	EventType          string    `json:"event_type"`
	TargetURL          string    `json:"target_url"`
	Secret             string    `json:"secret,omitempty"`
	Active             bool      `json:"active"`
	FailureCount       int       `json:"failure_count"`
	LastDeliveryStatus *string   `json:"last_delivery_status,omitempty"`
	RateLimitPerSecond int       `json:"rate_limit_per_second"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type CreateSubscriptionRequest struct {
	EventType          string `json:"event_type"`
	TargetURL          string `json:"target_url"`
	Secret             string `json:"secret,omitempty"`
	RateLimitPerSecond int    `json:"rate_limit_per_second,omitempty"`
}

// SubscriptionView is the management-API representation. It never exposes the
// shared secret.
type SubscriptionView struct {
	ID                 uuid.UUID `json:"id"`
	EventType          string    `json:"event_type"`
	TargetURL          string    `json:"target_url"`
	Active             bool      `json:"active"`
	FailureCount       int       `json:"failure_count"`
	LastDeliveryStatus *string   `json:"last_delivery_status,omitempty"`
	RateLimitPerSecond int       `json:"rate_limit_per_second"`
	CreatedAt          time.Time `json:"created_at"`
}

func (s WebhookSubscription) View() SubscriptionView {
	return SubscriptionView{
		ID:                 s.ID,
		EventType:          s.EventType,
		TargetURL:          s.TargetURL,
		Active:             s.Active,
		FailureCount:       s.FailureCount,
		LastDeliveryStatus: s.LastDeliveryStatus,
		RateLimitPerSecond: s.RateLimitPerSecond,
		CreatedAt:          s.CreatedAt,
	}
}
