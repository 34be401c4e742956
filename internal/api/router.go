package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakmart/webhook-engine/internal/engine"
	ws "github.com/oakmart/webhook-engine/internal/ws"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(subs SubscriptionStore, dispatcher engine.Dispatcher, hub *ws.Hub, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	subHandler := NewSubscriptionHandler(subs)
	eventHandler := NewEventHandler(dispatcher)

	if hub != nil {
		r.Get("/ws", hub.HandleWebSocket)
	}

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", subHandler.Create)
			r.Get("/", subHandler.List)
			r.Get("/{id}", subHandler.Get)
			r.Post("/{id}/deactivate", subHandler.Deactivate)
			r.Delete("/{id}", subHandler.Delete)
		})

		r.Post("/events", eventHandler.Create)
	})

	return r
}
