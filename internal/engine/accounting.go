package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oakmart/webhook-engine/internal/domain"
)

// AccountingStore is the slice of the subscription store that failure
// accounting mutates. Both operations are single atomic updates.
type AccountingStore interface {
	RecordDeliverySuccess(ctx context.Context, id uuid.UUID) error
	RecordDeliveryFailure(ctx context.Context, id uuid.UUID) error
}

// FailureAccounting persists the terminal outcome of each delivery: success
// resets the subscription's failure streak, exhaustion increments it. It is
// the only writer of failure_count and last_delivery_status. It never
// deactivates a subscription; that stays an explicit administrative action.
type FailureAccounting struct {
	store  AccountingStore
	logger *slog.Logger
}

func NewFailureAccounting(store AccountingStore, logger *slog.Logger) *FailureAccounting {
	return &FailureAccounting{store: store, logger: logger}
}

// RecordOutcome persists one terminal outcome. Persistence errors are logged,
// not propagated: the delivery already terminated and the producer was never
// waiting on it.
func (a *FailureAccounting) RecordOutcome(ctx context.Context, subscriptionID uuid.UUID, eventType string, outcome domain.DeliveryOutcome) {
	var err error
	if outcome.Succeeded() {
		err = a.store.RecordDeliverySuccess(ctx, subscriptionID)
	} else {
		err = a.store.RecordDeliveryFailure(ctx, subscriptionID)
	}

	if err != nil {
		a.logger.Error("failed to record delivery outcome",
			"subscription_id", subscriptionID,
			"event_type", eventType,
			"status", outcome.Status,
			"error", err,
		)
		return
	}

	a.logger.Info("delivery outcome recorded",
		"subscription_id", subscriptionID,
		"event_type", eventType,
		"status", outcome.Status,
		"attempts", outcome.Attempts,
		"elapsed_ms", outcome.ElapsedMs,
	)
}
