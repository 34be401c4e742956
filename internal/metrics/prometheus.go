package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// PrometheusSink implements Sink on a dedicated Prometheus registry.
type PrometheusSink struct {
	registry *prometheus.Registry

	deliveryAttemptsTotal *prometheus.CounterVec
	deliveryOutcomesTotal *prometheus.CounterVec
	deliveryLatency       *prometheus.HistogramVec
	jobsQueuedTotal       *prometheus.CounterVec
}

// NewPrometheusSink creates a sink with its own registry, including the
// standard Go and process collectors.
func NewPrometheusSink() *PrometheusSink {
	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		deliveryAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_delivery_attempts_total",
			Help: "Webhook delivery attempts by event type and status class.",
		}, []string{"event_type", "status_class"}),
		deliveryOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_delivery_outcomes_total",
			Help: "Terminal webhook delivery outcomes by event type.",
		}, []string{"event_type", "outcome"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webhook_delivery_latency_seconds",
			Help:    "Latency of individual webhook delivery attempts.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
		}, []string{"event_type", "status_class"}),
		jobsQueuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_jobs_queued_total",
			Help: "Delivery jobs queued by the dispatcher, per event type.",
		}, []string{"event_type"}),
	}

	s.registry.MustRegister(
		s.deliveryAttemptsTotal,
		s.deliveryOutcomesTotal,
		s.deliveryLatency,
		s.jobsQueuedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return s
}

// Registry exposes the underlying registry for the /metrics handler.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

func (s *PrometheusSink) DeliveryAttempt(eventType, statusClass string, duration time.Duration) {
	s.deliveryAttemptsTotal.WithLabelValues(eventType, statusClass).Inc()
	s.deliveryLatency.WithLabelValues(eventType, statusClass).Observe(duration.Seconds())
}

func (s *PrometheusSink) DeliveryOutcome(eventType, outcome string) {
	s.deliveryOutcomesTotal.WithLabelValues(eventType, outcome).Inc()
}

func (s *PrometheusSink) JobsQueued(eventType string, n int) {
	s.jobsQueuedTotal.WithLabelValues(eventType).Add(float64(n))
}
