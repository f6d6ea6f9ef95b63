package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/messaging"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/outbox"
	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
)

func main() {
	cfg, err := config.LoadRelayConfig()
	if err != nil {
		config.NewLogger(config.EnvDevelopment, os.Stderr).Error("invalid relay configuration", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.AppEnv, os.Stdout).With("component", "outbox-relay")
	logger.Info("starting outbox relay service")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.LifecycleQueueName, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer broker.Close()
	logger.Info("connected to RabbitMQ", "queue", cfg.LifecycleQueueName)

	relayWorker := outbox.NewRelay(
		db,
		cfg.DatabaseURL,
		broker,
		config.NewCircuitBreaker(config.BreakerRelayPostgres, logger, nil),
		logger,
	)

	// Start health check HTTP server
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, relayWorker.IsHealthy())
	})
	healthMux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, relayWorker.IsReady())
	})

	healthServer := &http.Server{
		Addr:              ":8090",
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting health check server", "addr", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := relayWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("relay worker stopped", "error", err)
	}

	// Shutdown health server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health server", "error", err)
	}

	logger.Info("relay shutdown complete")
}

func writeProbe(w http.ResponseWriter, ok bool) {
	status, code := "UP", http.StatusOK
	if !ok {
		status, code = "DOWN", http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, map[string]string{
		"status":    status,
		"component": "outbox-relay",
	})
}
