package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/metrics"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/middleware"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/mocks"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimit(t *testing.T) {
	t.Run("keys_on_client_ip", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := mocks.NewMockRateLimiter(ctrl)
		limiter.EXPECT().Allow(gomock.Any(), "session:203.0.113.7").Return(true, nil)

		req := httptest.NewRequest(http.MethodPost, "/jwt", nil)
		req.RemoteAddr = "203.0.113.7:51234"
		rec := httptest.NewRecorder()
		middleware.RateLimit(limiter, "session", nil, discard)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("keys_on_identity_when_present", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := mocks.NewMockRateLimiter(ctrl)
		limiter.EXPECT().Allow(gomock.Any(), "payment:donor@example.com").Return(true, nil)

		req := httptest.NewRequest(http.MethodPost, "/payments/intents", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), domain.Identity{Email: "donor@example.com"}))
		rec := httptest.NewRecorder()
		middleware.RateLimit(limiter, "payment", nil, discard)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("over_limit_is_rejected_and_counted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := mocks.NewMockRateLimiter(ctrl)
		limiter.EXPECT().Allow(gomock.Any(), gomock.Any()).Return(false, nil)
		m := metrics.New(prometheus.NewRegistry())

		rec := httptest.NewRecorder()
		middleware.RateLimit(limiter, "session", m, discard)(okHandler).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jwt", nil))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"message":"too many requests"}`, rec.Body.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitRejections.WithLabelValues("session")))
	})

	t.Run("limiter_failure_lets_request_through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		limiter := mocks.NewMockRateLimiter(ctrl)
		limiter.EXPECT().Allow(gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

		rec := httptest.NewRecorder()
		middleware.RateLimit(limiter, "session", nil, discard)(okHandler).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jwt", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("nil_limiter_is_a_passthrough", func(t *testing.T) {
		rec := httptest.NewRecorder()
		middleware.RateLimit(nil, "session", nil, discard)(okHandler).
			ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jwt", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
