package metrics

import (
	"errors"
	"net"
	"os"
	"strings"
	"time"
)

// Sink records delivery metrics. All methods are fire-and-forget:
// implementations must not block the delivery path or propagate errors.
type Sink interface {
	DeliveryAttempt(eventType, statusClass string, duration time.Duration)
	DeliveryOutcome(eventType, outcome string)
	JobsQueued(eventType string, n int)
}

// Outcome labels for DeliveryOutcome.
const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

// Status classes for DeliveryAttempt. Bounded cardinality on purpose.
const (
	StatusClass2xx             = "2xx"
	StatusClass4xx             = "4xx"
	StatusClass5xx             = "5xx"
	StatusClassTimeout         = "timeout"
	StatusClassConnectionError = "connection_error"
	StatusClassOtherError      = "other_error"
)

// ClassifyStatus maps an HTTP status code and transport error to a status class.
func ClassifyStatus(statusCode int, err error) string {
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) || isTimeout(err) {
			return StatusClassTimeout
		}
		var netErr *net.OpError
		if errors.As(err, &netErr) {
			return StatusClassConnectionError
		}
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") || strings.Contains(msg, "dial") {
			return StatusClassConnectionError
		}
		return StatusClassOtherError
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return StatusClass2xx
	case statusCode >= 400 && statusCode < 500:
		return StatusClass4xx
	case statusCode >= 500:
		return StatusClass5xx
	default:
		return StatusClassOtherError
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "deadline exceeded")
}
