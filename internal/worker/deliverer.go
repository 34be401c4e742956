package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oakmart/webhook-engine/internal/domain"
	"github.com/oakmart/webhook-engine/internal/metrics"
	"github.com/oakmart/webhook-engine/internal/signer"
	"github.com/oakmart/webhook-engine/internal/ws"
)

// OutcomeRecorder receives the terminal result of a delivery. Implemented by
// the engine's failure accounting.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, subscriptionID uuid.UUID, eventType string, outcome domain.DeliveryOutcome)
}

// RateLimiter throttles deliveries per subscription. Implementations must
// fail open.
type RateLimiter interface {
	Allow(ctx context.Context, subscriptionID uuid.UUID, limit int) bool
}

// Broadcaster pushes terminal outcomes to the live delivery feed.
type Broadcaster interface {
	Broadcast(event ws.OutcomeEvent)
}

// Config bounds the retry state machine. MaxRetries is the total attempt
// count including the first; RetryDelay is the fixed wait between attempts.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Deliverer executes a single delivery job: sign, POST, classify, retry with
// a fixed delay up to MaxRetries attempts, then hand the terminal outcome to
// the recorder. Attempts for one job are strictly sequential; deliveries to
// different subscriptions never share a Deliverer invocation.
type Deliverer struct {
	httpClient *http.Client
	outcomes   OutcomeRecorder
	metrics    metrics.Sink
	logger     *slog.Logger
	limiter    RateLimiter // optional, nil = unthrottled
	feed       Broadcaster // optional, nil = no feed
	maxRetries int
	retryDelay time.Duration
}

func NewDeliverer(cfg Config, outcomes OutcomeRecorder, sink metrics.Sink, logger *slog.Logger) *Deliverer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Deliverer{
		httpClient: &http.Client{Timeout: timeout},
		outcomes:   outcomes,
		metrics:    sink,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// WithRateLimiter attaches a per-subscription rate limiter.
func (d *Deliverer) WithRateLimiter(rl RateLimiter) *Deliverer {
	d.limiter = rl
	return d
}

// WithFeed attaches the live outcome feed.
func (d *Deliverer) WithFeed(feed Broadcaster) *Deliverer {
	d.feed = feed
	return d
}

type attemptResult struct {
	statusCode int // 0 when the request never completed
	err        error
	permanent  bool
	elapsed    time.Duration
}

func (r attemptResult) succeeded() bool {
	return r.err == nil && r.statusCode >= 200 && r.statusCode < 300
}

// retryable reports whether the failure is transient: transport errors,
// timeouts, 429 and 5xx responses. Other 4xx responses will not improve on
// retry and terminate the delivery immediately.
func (r attemptResult) retryable() bool {
	if r.permanent {
		return false
	}
	if r.err != nil {
		return true
	}
	return r.statusCode == http.StatusTooManyRequests || r.statusCode >= 500
}

// Deliver runs the full retry state machine for one job. It always reports
// exactly one terminal outcome, even when abandoned during shutdown.
func (d *Deliverer) Deliver(ctx context.Context, job DeliveryJob) {
	start := time.Now()

	var last attemptResult
	attempts := 0

	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		if attempt > 1 {
			if !d.waitRetryDelay(ctx) {
				// Shutdown during the inter-attempt wait. Abandon and record
				// a failure; at-least-once is preserved because the receiver
				// may or may not have seen an earlier attempt anyway.
				last.err = ctx.Err()
				break
			}
		}

		d.waitForRateLimit(ctx, job)

		last = d.attempt(ctx, job, attempt)
		attempts = attempt

		d.metrics.DeliveryAttempt(job.EventType, metrics.ClassifyStatus(last.statusCode, last.err), last.elapsed)

		if last.succeeded() {
			d.logger.Info("delivery successful",
				"event_id", job.EventID,
				"event_type", job.EventType,
				"subscription_id", job.SubscriptionID,
				"attempt", attempt,
				"status_code", last.statusCode,
				"response_time_ms", last.elapsed.Milliseconds(),
			)
			d.finish(ctx, job, domain.StatusDelivered, attempts, last, start)
			return
		}

		d.logger.Warn("delivery attempt failed",
			"event_id", job.EventID,
			"event_type", job.EventType,
			"subscription_id", job.SubscriptionID,
			"attempt", attempt,
			"max_retries", d.maxRetries,
			"status_code", last.statusCode,
			"error", errString(last.err),
			"retryable", last.retryable(),
		)

		if !last.retryable() {
			break
		}
	}

	d.finish(ctx, job, domain.StatusFailed, attempts, last, start)
}

func (d *Deliverer) attempt(ctx context.Context, job DeliveryJob, attempt int) attemptResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.TargetURL, bytes.NewReader(job.Payload))
	if err != nil {
		return attemptResult{
			err:       fmt.Errorf("creating request: %w", err),
			permanent: true,
			elapsed:   time.Since(start),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", job.EventType)
	req.Header.Set("X-Webhook-ID", job.EventID)
	req.Header.Set("X-Webhook-Attempt", strconv.Itoa(attempt))
	if job.Secret != "" {
		req.Header.Set("X-Webhook-Signature", signer.Sign(job.Payload, job.Secret))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return attemptResult{err: fmt.Errorf("sending request: %w", err), elapsed: time.Since(start)}
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return attemptResult{statusCode: resp.StatusCode, elapsed: time.Since(start)}
}

func (d *Deliverer) finish(ctx context.Context, job DeliveryJob, status string, attempts int, last attemptResult, start time.Time) {
	outcome := domain.DeliveryOutcome{
		Status:    status,
		Attempts:  attempts,
		Error:     errString(last.err),
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	if last.statusCode != 0 {
		code := last.statusCode
		outcome.HTTPStatusCode = &code
	}

	d.outcomes.RecordOutcome(ctx, job.SubscriptionID, job.EventType, outcome)

	label := metrics.OutcomeDelivered
	if !outcome.Succeeded() {
		label = metrics.OutcomeFailed
	}
	d.metrics.DeliveryOutcome(job.EventType, label)

	if d.feed != nil {
		d.feed.Broadcast(ws.OutcomeEvent{
			Status:         outcome.Status,
			EventID:        job.EventID,
			SubscriptionID: job.SubscriptionID,
			EventType:      job.EventType,
			TargetURL:      job.TargetURL,
			Attempts:       outcome.Attempts,
			HTTPStatusCode: outcome.HTTPStatusCode,
			Error:          outcome.Error,
			ElapsedMs:      outcome.ElapsedMs,
			Timestamp:      time.Now().UTC(),
		})
	}
}

// waitRetryDelay sleeps the fixed inter-attempt delay. Returns false if the
// context was cancelled first.
func (d *Deliverer) waitRetryDelay(ctx context.Context) bool {
	timer := time.NewTimer(d.retryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// rateLimitRecheck is how often a throttled worker re-asks the limiter.
const rateLimitRecheck = 100 * time.Millisecond

// rateLimitMaxWait caps how long a worker may stay throttled before
// proceeding anyway; the limiter is advisory, not a correctness mechanism.
const rateLimitMaxWait = 2 * time.Second

func (d *Deliverer) waitForRateLimit(ctx context.Context, job DeliveryJob) {
	if d.limiter == nil || job.RateLimitPerSecond <= 0 {
		return
	}

	deadline := time.Now().Add(rateLimitMaxWait)
	for !d.limiter.Allow(ctx, job.SubscriptionID, job.RateLimitPerSecond) {
		if time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(rateLimitRecheck):
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
