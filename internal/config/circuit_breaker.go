package config

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker names. Each dependency gets its own breaker instance.
const (
	BreakerMongo         = "MongoDB"
	BreakerStripe        = "Stripe"
	BreakerPostgres      = "PostgreSQL"
	BreakerRelayPostgres = "Relay-PostgreSQL"
	BreakerRabbitMQ      = "RabbitMQ"
	BreakerRedis         = "Redis-RateLimit"
)

// NewCircuitBreaker creates a circuit breaker with standard settings.
// isSuccessful may be nil; when set, errors it accepts do not count as failures.
func NewCircuitBreaker(name string, logger *slog.Logger, isSuccessful func(error) bool) *gobreaker.CircuitBreaker {
	var timeout time.Duration

	// Aligned with the 5s readiness probe timeout
	switch name {
	case BreakerRedis:
		timeout = time.Second * 5
	case BreakerPostgres, BreakerMongo, BreakerRelayPostgres:
		timeout = time.Second * 10
	default:
		timeout = time.Second * 30
	}

	if logger == nil {
		logger = slog.Default()
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Second * 10,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Open circuit after 3 consecutive failures
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Error("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isSuccessful,
	})
}
