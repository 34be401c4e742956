package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oakmart/webhook-engine/internal/domain"
	"github.com/oakmart/webhook-engine/internal/store"
)

// SubscriptionStore is the persistence surface the management API needs.
type SubscriptionStore interface {
	Create(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.WebhookSubscription, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error)
	List(ctx context.Context) ([]domain.WebhookSubscription, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SubscriptionHandler struct {
	store SubscriptionStore
}

func NewSubscriptionHandler(s SubscriptionStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: s}
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.EventType == "" {
		respondError(w, http.StatusBadRequest, "event_type is required")
		return
	}
	if req.TargetURL == "" {
		respondError(w, http.StatusBadRequest, "target_url is required")
		return
	}
	if u, err := url.Parse(req.TargetURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		respondError(w, http.StatusBadRequest, "target_url must be an http(s) URL")
		return
	}
	if req.RateLimitPerSecond < 0 {
		respondError(w, http.StatusBadRequest, "rate_limit_per_second must not be negative")
		return
	}

	sub, err := h.store.Create(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create subscription")
		return
	}

	respondJSON(w, http.StatusCreated, sub.View())
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	views := make([]domain.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, sub.View())
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sub, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get subscription")
		return
	}

	respondJSON(w, http.StatusOK, sub.View())
}

func (h *SubscriptionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	sub, err := h.store.Deactivate(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to deactivate subscription")
		return
	}

	respondJSON(w, http.StatusOK, sub.View())
}

func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "subscription not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid subscription id")
		return uuid.Nil, false
	}
	return id, true
}
