// Package engine contains the event-facing half of the webhook pipeline:
// fan-out of domain events to matching subscriptions, per-subscription
// delivery throttling, and failure accounting for terminal outcomes.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/oakmart/webhook-engine/internal/domain"
	"github.com/oakmart/webhook-engine/internal/metrics"
	"github.com/oakmart/webhook-engine/internal/worker"
)

// SubscriptionSource loads the active subscriptions for an event type.
type SubscriptionSource interface {
	FindActiveByEventType(ctx context.Context, eventType string) ([]domain.WebhookSubscription, error)
}

// JobQueue accepts delivery jobs for asynchronous execution.
type JobQueue interface {
	Submit(job worker.DeliveryJob)
}

// Dispatcher fans one domain event out to all matching active subscriptions.
type Dispatcher interface {
	Dispatch(ctx context.Context, eventType string, payload map[string]any) (int, error)
}

// FanOut is the live Dispatcher implementation. Delivery is best-effort
// within the process lifetime: jobs live only in the worker pool's buffer, so
// a crash between dispatch and delivery loses in-flight events.
type FanOut struct {
	subs    SubscriptionSource
	queue   JobQueue
	metrics metrics.Sink
	logger  *slog.Logger
}

func NewFanOut(subs SubscriptionSource, queue JobQueue, sink metrics.Sink, logger *slog.Logger) *FanOut {
	return &FanOut{
		subs:    subs,
		queue:   queue,
		metrics: sink,
		logger:  logger,
	}
}

// Dispatch serializes the payload once, loads the matching active
// subscriptions and queues one delivery job per subscription. It returns the
// number of deliveries queued as soon as all jobs are handed to the pool;
// completion is observable only through persisted subscription state, metrics
// and logs. Zero matching subscriptions is a no-op, not an error.
func (f *FanOut) Dispatch(ctx context.Context, eventType string, payload map[string]any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		// Nothing was delivered and no subscriber is penalized.
		f.logger.Error("failed to serialize event payload",
			"event_type", eventType,
			"error", err,
		)
		return 0, fmt.Errorf("serializing payload for %s: %w", eventType, err)
	}

	subs, err := f.subs.FindActiveByEventType(ctx, eventType)
	if err != nil {
		return 0, fmt.Errorf("finding subscriptions for %s: %w", eventType, err)
	}

	if len(subs) == 0 {
		f.logger.Debug("no active subscriptions", "event_type", eventType)
		return 0, nil
	}

	// One event occurrence shares one ID and one payload buffer across all
	// subscribers, so signatures verify against byte-identical bodies.
	eventID := uuid.NewString()

	for _, sub := range subs {
		f.queue.Submit(worker.DeliveryJob{
			EventID:            eventID,
			EventType:          eventType,
			SubscriptionID:     sub.ID,
			TargetURL:          sub.TargetURL,
			Secret:             sub.Secret,
			Payload:            body,
			RateLimitPerSecond: sub.RateLimitPerSecond,
		})
	}

	f.metrics.JobsQueued(eventType, len(subs))
	f.logger.Info("fan-out complete",
		"event_id", eventID,
		"event_type", eventType,
		"deliveries_queued", len(subs),
	)

	return len(subs), nil
}

// Disabled is the no-op Dispatcher used when webhooks are switched off.
// Events are acknowledged without side effects.
type Disabled struct {
	logger *slog.Logger
}

func NewDisabled(logger *slog.Logger) *Disabled {
	return &Disabled{logger: logger}
}

func (d *Disabled) Dispatch(ctx context.Context, eventType string, payload map[string]any) (int, error) {
	d.logger.Debug("webhooks disabled, dropping event", "event_type", eventType)
	return 0, nil
}
