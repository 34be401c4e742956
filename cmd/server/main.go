package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakmart/webhook-engine/internal/api"
	"github.com/oakmart/webhook-engine/internal/config"
	"github.com/oakmart/webhook-engine/internal/engine"
	"github.com/oakmart/webhook-engine/internal/metrics"
	"github.com/oakmart/webhook-engine/internal/store"
	"github.com/oakmart/webhook-engine/internal/worker"
	"github.com/oakmart/webhook-engine/internal/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to PostgreSQL")

	if err := store.RunMigrations(ctx, pool, "migrations"); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	subs := store.NewSubscriptionStore(pool)

	// Metrics
	sink := metrics.NewPrometheusSink()

	// Live delivery feed
	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	// Failure accounting closes the loop from delivery outcomes back to the
	// subscription rows.
	accounting := engine.NewFailureAccounting(subs, logger)

	deliverer := worker.NewDeliverer(worker.Config{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
		Timeout:    cfg.DeliveryTimeout(),
	}, accounting, sink, logger).WithFeed(hub)

	// Redis is optional; without it deliveries are simply unthrottled.
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiting disabled", "error", err)
		} else {
			deliverer = deliverer.WithRateLimiter(engine.NewRedisRateLimiter(client, logger))
			logger.Info("connected to Redis, per-subscription rate limiting enabled")
		}
		defer client.Close()
	}

	workers := worker.NewPool(cfg.NumWorkers, deliverer, logger)
	workers.Start(ctx)

	var dispatcher engine.Dispatcher
	if cfg.WebhooksEnabled {
		dispatcher = engine.NewFanOut(subs, workers, sink, logger)
	} else {
		logger.Warn("webhook dispatch is disabled")
		dispatcher = engine.NewDisabled(logger)
	}

	router := api.NewRouter(subs, dispatcher, hub, sink.Registry())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "num_workers", cfg.NumWorkers)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// Stop accepting jobs and let in-flight deliveries finish.
	workers.Stop()
	cancel()

	logger.Info("server stopped")
}
