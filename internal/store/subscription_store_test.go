package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/webhook-engine/internal/domain"
)

func newMockStore(t *testing.T) (*SubscriptionStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewSubscriptionStore(mock), mock
}

func subscriptionRows(sub domain.WebhookSubscription) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "event_type", "target_url", "secret", "active",
		"failure_count", "last_delivery_status", "rate_limit_per_second",
		"created_at", "updated_at",
	}).AddRow(
		sub.ID, sub.EventType, sub.TargetURL, sub.Secret, sub.Active,
		sub.FailureCount, sub.LastDeliveryStatus, sub.RateLimitPerSecond,
		sub.CreatedAt, sub.UpdatedAt,
	)
}

func TestSubscriptionStore_Create(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	expected := domain.WebhookSubscription{
		ID:        uuid.New(),
		EventType: "order.created",
		TargetURL: "https://ex.com/hook",
		Secret:    "s3cr3t",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectQuery(`INSERT INTO webhook_subscriptions`).
		WithArgs(pgxmock.AnyArg(), "order.created", "https://ex.com/hook", "s3cr3t", 0).
		WillReturnRows(subscriptionRows(expected))

	sub, err := store.Create(context.Background(), domain.CreateSubscriptionRequest{
		EventType: "order.created",
		TargetURL: "https://ex.com/hook",
		Secret:    "s3cr3t",
	})
	require.NoError(t, err)
	assert.Equal(t, expected.ID, sub.ID)
	assert.True(t, sub.Active)
	assert.Zero(t, sub.FailureCount)
	assert.Nil(t, sub.LastDeliveryStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionStore_FindActiveByEventType(t *testing.T) {
	store, mock := newMockStore(t)

	sub := domain.WebhookSubscription{
		ID:        uuid.New(),
		EventType: "order.created",
		TargetURL: "https://ex.com/hook",
		Active:    true,
	}

	mock.ExpectQuery(`WHERE active = true AND event_type = \$1`).
		WithArgs("order.created").
		WillReturnRows(subscriptionRows(sub))

	subs, err := store.FindActiveByEventType(context.Background(), "order.created")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionStore_FindActiveByEventType_Empty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`WHERE active = true AND event_type = \$1`).
		WithArgs("inventory.low").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "event_type", "target_url", "secret", "active",
			"failure_count", "last_delivery_status", "rate_limit_per_second",
			"created_at", "updated_at",
		}))

	subs, err := store.FindActiveByEventType(context.Background(), "inventory.low")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubscriptionStore_Deactivate_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE webhook_subscriptions`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Deactivate(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_Delete_NotFound(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM webhook_subscriptions`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := store.Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionStore_RecordDeliverySuccess(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`SET failure_count = 0, last_delivery_status = \$2`).
		WithArgs(id, domain.StatusDelivered).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.RecordDeliverySuccess(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionStore_RecordDeliveryFailure(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	// The increment must happen inside the UPDATE, not via read-modify-write.
	mock.ExpectExec(`SET failure_count = failure_count \+ 1, last_delivery_status = \$2`).
		WithArgs(id, domain.StatusFailed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.RecordDeliveryFailure(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}
