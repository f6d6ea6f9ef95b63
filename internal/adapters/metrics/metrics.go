package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	AuthzDecisions      *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	PaymentIntents      *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
}

var _ ports.Metrics = (*Metrics)(nil)

// New registers the collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodquest_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodquest_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		AuthzDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodquest_authorization_decisions_total",
			Help: "Role policy decisions by action and outcome.",
		}, []string{"action", "allowed"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodquest_lifecycle_transitions_total",
			Help: "Lifecycle status writes by resource and target status.",
		}, []string{"resource", "to"}),
		PaymentIntents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodquest_payment_intents_total",
			Help: "Payment intent attempts by outcome.",
		}, []string{"outcome"}),
		RateLimitRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodquest_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, by scope.",
		}, []string{"scope"}),
	}
}

func (m *Metrics) AuthorizationDecision(action string, allowed bool) {
	m.AuthzDecisions.WithLabelValues(action, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) LifecycleTransition(resource, to string) {
	m.Transitions.WithLabelValues(resource, to).Inc()
}

func (m *Metrics) PaymentIntent(outcome string) {
	m.PaymentIntents.WithLabelValues(outcome).Inc()
}
