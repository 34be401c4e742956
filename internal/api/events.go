package api

import (
	"encoding/json"
	"net/http"

	"github.com/oakmart/webhook-engine/internal/engine"
)

type EventHandler struct {
	dispatcher engine.Dispatcher
}

func NewEventHandler(d engine.Dispatcher) *EventHandler {
	return &EventHandler{dispatcher: d}
}

type createEventRequest struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

type createEventResponse struct {
	EventType        string `json:"event_type"`
	DeliveriesQueued int    `json:"deliveries_queued"`
}

// Create accepts a business event and fans it out to matching subscriptions.
// Delivery is asynchronous; the response only says how many jobs were queued.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EventType == "" {
		respondError(w, http.StatusBadRequest, "event_type is required")
		return
	}
	if req.Payload == nil {
		respondError(w, http.StatusBadRequest, "payload is required")
		return
	}

	queued, err := h.dispatcher.Dispatch(r.Context(), req.EventType, req.Payload)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to dispatch event")
		return
	}

	respondJSON(w, http.StatusAccepted, createEventResponse{
		EventType:        req.EventType,
		DeliveriesQueued: queued,
	})
}
