package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/metrics"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/middleware"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// RouterDeps collects what NewRouter mounts.
type RouterDeps struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Requests       *DonationRequestHandler
	Blogs          *BlogHandler
	Funds          *FundHandler
	Dashboard      *DashboardHandler
	Health         *HealthHandler
	Guard          *middleware.AuthMiddleware
	Limiter        ports.RateLimiter
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Instrument(d.Metrics, d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))
	r.Use(chimw.Timeout(30 * time.Second))

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	d.Health.RegisterPublic(r)

	// Public routes
	r.Group(func(r chi.Router) {
		r.With(middleware.RateLimit(d.Limiter, "session", d.Metrics, d.Logger)).Group(d.Auth.RegisterPublic)
		d.Users.RegisterPublic(r)
		d.Requests.RegisterPublic(r)
		d.Blogs.RegisterPublic(r)
	})

	// Protected routes: the session is verified before any handler runs
	r.Group(func(r chi.Router) {
		r.Use(d.Guard.RequireAuth)
		d.Users.RegisterProtected(r)
		d.Requests.RegisterProtected(r)
		d.Blogs.RegisterProtected(r)
		d.Dashboard.RegisterProtected(r)
		d.Funds.RegisterProtected(r)
		r.With(middleware.RateLimit(d.Limiter, "payment", d.Metrics, d.Logger)).Group(d.Funds.RegisterPayments)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteMessage(w, http.StatusNotFound, "route not found")
	})
	return r
}
