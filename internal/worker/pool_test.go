package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/webhook-engine/internal/domain"
	"github.com/oakmart/webhook-engine/internal/metrics"
)

func TestPool_ProcessesAllJobs(t *testing.T) {
	var received atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	d := newTestDeliverer(recorder, 3)

	pool := NewPool(4, d, testLogger())
	pool.Start(context.Background())

	const jobCount = 20
	for i := 0; i < jobCount; i++ {
		pool.Submit(DeliveryJob{
			EventID:        fmt.Sprintf("evt-%d", i),
			EventType:      "order.created",
			SubscriptionID: uuid.New(),
			TargetURL:      server.URL,
			Payload:        json.RawMessage(`{}`),
		})
	}
	pool.Stop()

	assert.Equal(t, int32(jobCount), received.Load())
	assert.Len(t, recorder.recorded(), jobCount)
	assert.Equal(t, 0, pool.QueueDepth())
}

func TestPool_IndependentOutcomesPerSubscription(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()

	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failServer.Close()

	recorder := &fakeRecorder{}
	d := newTestDeliverer(recorder, 2)

	pool := NewPool(2, d, testLogger())
	pool.Start(context.Background())

	healthySub := uuid.New()
	brokenSub := uuid.New()

	pool.Submit(DeliveryJob{
		EventID:        "evt-both",
		EventType:      "order.created",
		SubscriptionID: healthySub,
		TargetURL:      okServer.URL,
		Payload:        json.RawMessage(`{}`),
	})
	pool.Submit(DeliveryJob{
		EventID:        "evt-both",
		EventType:      "order.created",
		SubscriptionID: brokenSub,
		TargetURL:      failServer.URL,
		Payload:        json.RawMessage(`{}`),
	})
	pool.Stop()

	outcomes := recorder.recorded()
	require.Len(t, outcomes, 2)

	byID := make(map[uuid.UUID]domain.DeliveryOutcome, 2)
	for _, o := range outcomes {
		byID[o.subscriptionID] = o.outcome
	}
	assert.Equal(t, domain.StatusDelivered, byID[healthySub].Status)
	assert.Equal(t, domain.StatusFailed, byID[brokenSub].Status)
}

func TestPool_StopWaitsForInFlightDelivery(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	d := NewDeliverer(Config{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		Timeout:    5 * time.Second,
	}, recorder, metrics.NewNoopSink(), testLogger())

	pool := NewPool(1, d, testLogger())
	pool.Start(context.Background())

	pool.Submit(DeliveryJob{
		EventID:        "evt-slow",
		EventType:      "order.created",
		SubscriptionID: uuid.New(),
		TargetURL:      server.URL,
		Payload:        json.RawMessage(`{}`),
	})

	// Let the worker pick the job up before releasing the response.
	time.Sleep(50 * time.Millisecond)
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	pool.Stop()

	outcomes := recorder.recorded()
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.StatusDelivered, outcomes[0].outcome.Status)
}
