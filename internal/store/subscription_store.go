package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oakmart/webhook-engine/internal/domain"
)

// ErrNotFound is returned by management operations that reference an unknown
// subscription id.
var ErrNotFound = errors.New("subscription not found")

const subscriptionColumns = `id, event_type, target_url, secret, active, failure_count, last_delivery_status, rate_limit_per_second, created_at, updated_at`

// SubscriptionStore persists WebhookSubscription records. It owns all mutation
// of failure_count and last_delivery_status; both accounting updates are a
// single UPDATE so concurrent terminal outcomes for the same subscription
// cannot lose increments.
type SubscriptionStore struct {
	db DB
}

func NewSubscriptionStore(db DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) Create(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.WebhookSubscription, error) {
	sub := domain.WebhookSubscription{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO webhook_subscriptions (id, event_type, target_url, secret, rate_limit_per_second)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+subscriptionColumns,
		uuid.New(), req.EventType, req.TargetURL, req.Secret, req.RateLimitPerSecond,
	).Scan(
		&sub.ID, &sub.EventType, &sub.TargetURL, &sub.Secret, &sub.Active,
		&sub.FailureCount, &sub.LastDeliveryStatus, &sub.RateLimitPerSecond,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error) {
	var sub domain.WebhookSubscription
	err := s.db.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM webhook_subscriptions WHERE id = $1
	`, id).Scan(
		&sub.ID, &sub.EventType, &sub.TargetURL, &sub.Secret, &sub.Active,
		&sub.FailureCount, &sub.LastDeliveryStatus, &sub.RateLimitPerSecond,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) List(ctx context.Context) ([]domain.WebhookSubscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM webhook_subscriptions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// FindActiveByEventType returns every active subscription registered for the
// given event type.
func (s *SubscriptionStore) FindActiveByEventType(ctx context.Context, eventType string) ([]domain.WebhookSubscription, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM webhook_subscriptions
		WHERE active = true AND event_type = $1
	`, eventType)
	if err != nil {
		return nil, fmt.Errorf("finding active subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

// Deactivate flips active to false without deleting delivery history.
func (s *SubscriptionStore) Deactivate(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error) {
	var sub domain.WebhookSubscription
	err := s.db.QueryRow(ctx, `
		UPDATE webhook_subscriptions
		SET active = false, updated_at = NOW()
		WHERE id = $1
		RETURNING `+subscriptionColumns,
		id,
	).Scan(
		&sub.ID, &sub.EventType, &sub.TargetURL, &sub.Secret, &sub.Active,
		&sub.FailureCount, &sub.LastDeliveryStatus, &sub.RateLimitPerSecond,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deactivating subscription: %w", err)
	}
	return &sub, nil
}

func (s *SubscriptionStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM webhook_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDeliverySuccess resets the failure streak after a delivered event.
func (s *SubscriptionStore) RecordDeliverySuccess(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE webhook_subscriptions
		SET failure_count = 0, last_delivery_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, domain.StatusDelivered)
	if err != nil {
		return fmt.Errorf("recording delivery success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDeliveryFailure increments the failure streak after retry exhaustion.
// The increment happens in SQL so concurrent terminations don't lose updates.
func (s *SubscriptionStore) RecordDeliveryFailure(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE webhook_subscriptions
		SET failure_count = failure_count + 1, last_delivery_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, domain.StatusFailed)
	if err != nil {
		return fmt.Errorf("recording delivery failure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubscriptions(rows pgx.Rows) ([]domain.WebhookSubscription, error) {
	subs := []domain.WebhookSubscription{}
	for rows.Next() {
		var sub domain.WebhookSubscription
		err := rows.Scan(
			&sub.ID, &sub.EventType, &sub.TargetURL, &sub.Secret, &sub.Active,
			&sub.FailureCount, &sub.LastDeliveryStatus, &sub.RateLimitPerSecond,
			&sub.CreatedAt, &sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}
	return subs, nil
}
