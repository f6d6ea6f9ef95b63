package middleware

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/metrics"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// RateLimit admits requests per client under scope. It keys on the session
// identity when present and on the client IP otherwise. A limiter error lets
// the request through.
func RateLimit(limiter ports.RateLimiter, scope string, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := scope + ":" + clientKey(r)

			ok, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.ErrorContext(ctx, "rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				if m != nil {
					m.RateLimitRejections.WithLabelValues(scope).Inc()
				}
				logger.WarnContext(ctx, "rate limit exceeded", "scope", scope, "key", key)
				httputil.WriteMessage(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if id, ok := IdentityFromContext(r.Context()); ok && id.Email != "" {
		return id.Email
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
