package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/handler"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/metrics"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/middleware"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/payment"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/ratelimit"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/repository"
	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.AppEnv, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("api shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store
	gateway, err := repository.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		return err
	}
	defer closeWithTimeout(logger, "mongodb", gateway.Close)
	if err := gateway.EnsureIndexes(ctx); err != nil {
		return err
	}
	logger.Info("connected to document store", "database", cfg.MongoDatabase)

	users := repository.NewUserRepository(gateway)
	requests := repository.NewDonationRequestRepository(gateway)
	blogs := repository.NewBlogRepository(gateway)
	funds := repository.NewFundRepository(gateway)

	checks := map[string]handler.Pinger{"mongodb": gateway}

	// Lifecycle outbox (optional)
	var recorder ports.EventRecorder
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		outbox := repository.NewSQLOutboxRepository(db, config.NewCircuitBreaker(config.BreakerPostgres, logger, nil))
		if err := outbox.EnsureSchema(ctx); err != nil {
			return err
		}
		recorder = outbox
		checks["postgres"] = outbox
		logger.Info("lifecycle outbox enabled")
	} else {
		logger.Warn("DB_CONNECTION_STRING not set, lifecycle events are not recorded")
	}

	// Rate limiting (optional)
	var limiter ports.RateLimiter
	if cfg.RedisAddress != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitPerMinute, time.Minute, logger)
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("rate limiting enabled", "per_minute", cfg.RateLimitPerMinute)
	} else {
		logger.Warn("REDIS_ADDRESS not set, rate limiting disabled")
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, payment intents will fail")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Core
	issuer := services.NewCredentialIssuer(cfg.AccessTokenSecret, cfg.TokenTTL)
	guard := services.NewAccessGuard(cfg.AccessTokenSecret)
	authz := services.NewAuthorizer(users, m, logger)

	userService := services.NewUserService(users, authz, recorder, m, logger)
	requestService := services.NewDonationRequestService(requests, authz, recorder, m, logger)
	blogService := services.NewBlogService(blogs, authz, recorder, m, logger)
	dashboardService := services.NewDashboardService(users, funds, requests, authz)
	fundService := services.NewFundService(funds, authz, logger)
	paymentService := services.NewPaymentService(
		payment.NewStripeProvider(cfg.StripeSecretKey, logger),
		authz,
		cfg.PaymentCurrency,
		m,
		logger,
	)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           handler.NewAuthHandler(issuer, handler.CookieOptions{Production: cfg.IsProduction()}, logger),
		Users:          handler.NewUserHandler(userService, requestService, logger),
		Requests:       handler.NewDonationRequestHandler(requestService, logger),
		Blogs:          handler.NewBlogHandler(blogService, logger),
		Funds:          handler.NewFundHandler(fundService, paymentService, logger),
		Dashboard:      handler.NewDashboardHandler(dashboardService),
		Health:         handler.NewHealthHandler(checks, logger),
		Guard:          middleware.NewAuthMiddleware(guard, logger),
		Limiter:        limiter,
		Metrics:        m,
		Gatherer:       reg,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func closeWithTimeout(logger *slog.Logger, name string, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		logger.Error("failed to close dependency", "dependency", name, "error", err)
	}
}
