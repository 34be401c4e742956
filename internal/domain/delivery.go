package domain

// Terminal delivery statuses recorded on the subscription.
const (
	StatusDelivered = "DELIVERED"
	StatusFailed    = "FAILED"
)

// DeliveryOutcome is the terminal result of delivering one event to one
// subscription. Individual attempts are not persisted; only the final outcome
// is handed to failure accounting.
type DeliveryOutcome struct {
	Status         string `json:"status"`
	Attempts       int    `json:"attempts"`
	HTTPStatusCode *int   `json:"http_status_code,omitempty"`
	Error          string `json:"error,omitempty"`
	ElapsedMs      int64  `json:"elapsed_ms"`
}

func (o DeliveryOutcome) Succeeded() bool {
	return o.Status == StatusDelivered
}
