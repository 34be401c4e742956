package metrics

import "time"

// NoopSink discards all metrics. Used when metrics are disabled so callers
// never need nil checks.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (NoopSink) DeliveryAttempt(eventType, statusClass string, duration time.Duration) {}
func (NoopSink) DeliveryOutcome(eventType, outcome string)                             {}
func (NoopSink) JobsQueued(eventType string, n int)                                    {}
