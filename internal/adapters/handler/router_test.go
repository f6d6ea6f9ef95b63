package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/handler"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/metrics"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/middleware"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/services"
	"github.com/AchilleasB/blood-quest/donation-service/internal/mocks"
)

const secret = "router-test-secret"

type testServer struct {
	handler  http.Handler
	issuer   *services.CredentialIssuer
	users    *mocks.MockUserRepository
	requests *mocks.MockDonationRequestRepository
	posts    *mocks.MockBlogRepository
	funds    *mocks.MockFundRepository
	provider *mocks.MockPaymentProvider
}

type serverOptions struct {
	production bool
	checks     map[string]handler.Pinger
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := gomock.NewController(t)

	s := &testServer{
		issuer:   services.NewCredentialIssuer(secret, time.Hour),
		users:    mocks.NewMockUserRepository(),
		requests: mocks.NewMockDonationRequestRepository(),
		posts:    mocks.NewMockBlogRepository(),
		funds:    mocks.NewMockFundRepository(),
		provider: mocks.NewMockPaymentProvider(ctrl),
	}
	for _, u := range []domain.User{
		mocks.NewTestUser("donor@example.com", domain.RoleDonor),
		mocks.NewTestUser("volunteer@example.com", domain.RoleVolunteer),
		mocks.NewTestUser("admin@example.com", domain.RoleAdmin),
	} {
		s.users.SeedUser(u)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	events := mocks.NewMockEventRecorder()
	authz := services.NewAuthorizer(s.users, m, logger)

	userSvc := services.NewUserService(s.users, authz, events, m, logger)
	requestSvc := services.NewDonationRequestService(s.requests, authz, events, m, logger)
	blogSvc := services.NewBlogService(s.posts, authz, events, m, logger)
	fundSvc := services.NewFundService(s.funds, authz, logger)
	paymentSvc := services.NewPaymentService(s.provider, authz, "usd", m, logger)
	dashboardSvc := services.NewDashboardService(s.users, s.funds, s.requests, authz)

	s.handler = handler.NewRouter(handler.RouterDeps{
		Auth:           handler.NewAuthHandler(s.issuer, handler.CookieOptions{Production: opts.production}, logger),
		Users:          handler.NewUserHandler(userSvc, requestSvc, logger),
		Requests:       handler.NewDonationRequestHandler(requestSvc, logger),
		Blogs:          handler.NewBlogHandler(blogSvc, logger),
		Funds:          handler.NewFundHandler(fundSvc, paymentSvc, logger),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc),
		Health:         handler.NewHealthHandler(opts.checks, logger),
		Guard:          middleware.NewAuthMiddleware(services.NewAccessGuard(secret), logger),
		Metrics:        m,
		Gatherer:       reg,
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logger,
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, body, email string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		cred, err := s.issuer.Issue(map[string]any{"email": email})
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookieName, Value: cred.Token})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookieName {
			return c
		}
	}
	return nil
}

func TestIssueToken(t *testing.T) {
	t.Run("development_cookie", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		rec := s.do(t, http.MethodPost, "/jwt", `{"email":"donor@example.com","name":"Donor"}`, "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())

		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.NotEmpty(t, c.Value)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.Equal(t, 0, s.users.CallCount(), "issuing a token never reads the store")
	})

	t.Run("production_cookie", func(t *testing.T) {
		s := newTestServer(t, serverOptions{production: true})
		rec := s.do(t, http.MethodPost, "/jwt", `{"email":"donor@example.com"}`, "")

		require.Equal(t, http.StatusOK, rec.Code)
		c := sessionCookie(rec)
		require.NotNil(t, c)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	})

	t.Run("issued_cookie_opens_protected_routes", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		rec := s.do(t, http.MethodPost, "/jwt", `{"email":"donor@example.com"}`, "")
		c := sessionCookie(rec)
		require.NotNil(t, c)

		req := httptest.NewRequest(http.MethodGet, "/users/donor@example.com/role", nil)
		req.AddCookie(c)
		out := httptest.NewRecorder()
		s.handler.ServeHTTP(out, req)

		require.Equal(t, http.StatusOK, out.Code)
		assert.JSONEq(t, `{"role":"donor"}`, out.Body.String())
	})

	for _, body := range []string{`{"name":"x"}`, `{"email":"not-an-email"}`, ``, `[`} {
		t.Run("rejects_bad_claims", func(t *testing.T) {
			s := newTestServer(t, serverOptions{})
			rec := s.do(t, http.MethodPost, "/jwt", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, sessionCookie(rec))
		})
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	rec := s.do(t, http.MethodPost, "/logout", "", "donor@example.com")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	c := sessionCookie(rec)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
}

func TestProtectedRoutes_RejectWithoutSession(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/donor@example.com"},
		{http.MethodPost, "/donation-requests"},
		{http.MethodGet, "/donation-requests/req-1"},
		{http.MethodPatch, "/donation-requests/req-1/status"},
		{http.MethodPatch, "/blogs/blog-1/status"},
		{http.MethodGet, "/dashboard"},
		{http.MethodPost, "/funds"},
		{http.MethodPost, "/payments/intents"},
	}
	for _, rt := range routes {
		rec := s.do(t, rt.method, rt.path, `{}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)
	}
	assert.Equal(t, 0, s.users.CallCount())
	assert.Equal(t, 0, s.requests.CallCount())
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	body := `{"email":"new@example.com","name":"New","bloodGroup":"B+"}`

	rec := s.do(t, http.MethodPost, "/users", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"user created"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/users", body, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"user already exists"}`, rec.Body.String())
	assert.Len(t, s.users.InsertCalls, 1)

	rec = s.do(t, http.MethodPost, "/users", `{"email":"x@example.com","bloodGroup":"C+"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodPatch, "/users/donor@example.com/status", `{"status":"block"}`, "volunteer@example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/users/donor@example.com/status", `{"status":"block"}`, "admin@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"changed":true,"status":"blocked"}`, rec.Body.String())

	for _, body := range []string{`{"status":"archive"}`, `{"status":""}`, `{}`} {
		rec = s.do(t, http.MethodPatch, "/users/donor@example.com/status", body, "admin@example.com")
		require.Equal(t, http.StatusOK, rec.Code, body)
		assert.JSONEq(t, `{"changed":false}`, rec.Body.String(), body)
	}

	// the blocked donor's still-valid token no longer allows writes
	rec = s.do(t, http.MethodPost, "/funds", `{"amount":5,"transactionId":"pi_1"}`, "donor@example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/users/volunteer@example.com/role", `{"role":"admin"}`, "admin@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"role":"admin"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users?status=blocked", "", "admin@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	users := decode[[]domain.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "donor@example.com", users[0].Email)
}

func TestDonationRequestFlow(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodPost, "/donation-requests", `{
		"recipientName": "Rahim",
		"district": "Dhaka",
		"upazila": "Dhanmondi",
		"hospitalName": "DMCH",
		"bloodGroup": "A+",
		"donationDate": "2025-03-01",
		"donationTime": "10:00"
	}`, "donor@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[handler.CreatedResponse](t, rec)
	require.NotEmpty(t, created.InsertedID)

	stored, ok := s.requests.Get(created.InsertedID)
	require.True(t, ok)
	assert.Equal(t, domain.RequestPending, stored.Status)
	assert.Equal(t, "donor@example.com", stored.RequesterEmail)

	rec = s.do(t, http.MethodGet, "/donation-requests/pending", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.DonationRequest](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/donation-requests/search?bloodGroup=A%2B&district=Dhaka", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.DonationRequest](t, rec), 1)

	rec = s.do(t, http.MethodPost, "/donation-requests/"+created.InsertedID+"/donate", "", "volunteer@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"changed":true,"status":"inprogress"}`, rec.Body.String())

	rec = s.do(t, http.MethodPatch, "/donation-requests/"+created.InsertedID+"/status", `{"status":"done"}`, "volunteer@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/donation-requests/"+created.InsertedID, "", "donor@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.DonationRequest](t, rec)
	assert.Equal(t, domain.RequestDone, got.Status)
	assert.Equal(t, "volunteer@example.com", got.DonorEmail)

	rec = s.do(t, http.MethodPatch, "/donation-requests/"+created.InsertedID+"/status", `{"status":"approved"}`, "volunteer@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/donation-requests", `{"recipientName":"x","district":"d","upazila":"u","bloodGroup":"A+","donationDate":"01/03/2025","donationTime":"10:00"}`, "donor@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlogStatusToggle(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	s.posts.SeedPost(domain.BlogPost{ID: "blog-1", Title: "t", Content: "c", Status: domain.BlogPublished})

	rec := s.do(t, http.MethodPatch, "/blogs/blog-1/status", `{"status":"published"}`, "admin@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"changed":true,"status":"draft"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/blogs/published/blog-1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, body := range []string{`{"status":"archived"}`, `{"status":""}`, `{}`} {
		rec = s.do(t, http.MethodPatch, "/blogs/blog-1/status", body, "admin@example.com")
		require.Equal(t, http.StatusOK, rec.Code, body)
		assert.JSONEq(t, `{"changed":false}`, rec.Body.String(), body)
	}
	assert.Len(t, s.posts.SetStatusCalls, 1)

	rec = s.do(t, http.MethodPatch, "/blogs/blog-1/status", `{"status":"draft"}`, "volunteer@example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPayments(t *testing.T) {
	t.Run("creates_intent", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		s.provider.EXPECT().CreatePaymentIntent(gomock.Any(), int64(1234), "usd").Return("pi_secret", nil)

		rec := s.do(t, http.MethodPost, "/payments/intents", `{"amount":12.34}`, "donor@example.com")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"clientSecret":"pi_secret"}`, rec.Body.String())
	})

	t.Run("string_amount_is_coerced", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		s.provider.EXPECT().CreatePaymentIntent(gomock.Any(), int64(2500), "usd").Return("pi_secret", nil)

		rec := s.do(t, http.MethodPost, "/payments/intents", `{"amount":" 25 "}`, "donor@example.com")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non_positive_amount_never_reaches_provider", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})

		for _, body := range []string{
			`{"amount":0}`, `{"amount":-10}`, `{"amount":"-10"}`, `{}`,
			`{"amount":"ten"}`, `{"amount":"0x1p4"}`, `{"amount":1e300}`, `{"amount":"1e300"}`,
		} {
			rec := s.do(t, http.MethodPost, "/payments/intents", body, "donor@example.com")
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("provider_outage_is_bad_gateway", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		s.provider.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("dial tcp: timeout"))

		rec := s.do(t, http.MethodPost, "/payments/intents", `{"amount":5}`, "donor@example.com")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"message":"upstream service unavailable"}`, rec.Body.String())
	})
}

func TestFundsAndDashboard(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodPost, "/funds", `{"amount":"10.50","transactionId":"pi_1"}`, "donor@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/funds", `{"amount":4.5,"transactionId":"pi_2"}`, "donor@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	for _, amount := range []string{`"abc"`, `"0x1p4"`, `"0x_1p4"`, `"1e3"`, `1e3`, `"-4"`} {
		rec = s.do(t, http.MethodPost, "/funds", `{"amount":`+amount+`,"transactionId":"pi_3"}`, "donor@example.com")
		assert.Equal(t, http.StatusBadRequest, rec.Code, amount)
	}

	rec = s.do(t, http.MethodGet, "/funds", "", "donor@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	funds := decode[[]domain.Fund](t, rec)
	require.Len(t, funds, 2)
	assert.Equal(t, "10.50", funds[0].Amount)
	assert.Equal(t, "4.5", funds[1].Amount)

	rec = s.do(t, http.MethodGet, "/dashboard", "", "donor@example.com")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/dashboard", "", "volunteer@example.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalUsers":1,"totalFundingAmount":15,"totalRequests":0}`, rec.Body.String())
}

func TestHealthAndMisc(t *testing.T) {
	failing := handler.PingFunc(func(context.Context) error { return errors.New("refused") })
	healthy := handler.PingFunc(func(context.Context) error { return nil })

	s := newTestServer(t, serverOptions{checks: map[string]handler.Pinger{"mongodb": healthy}})

	rec := s.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blood quest server", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"route not found"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bloodquest_http_requests_total")

	down := newTestServer(t, serverOptions{checks: map[string]handler.Pinger{"mongodb": healthy, "outbox": failing}})
	rec = down.do(t, http.MethodGet, "/health/ready", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	health := decode[handler.HealthResponse](t, rec)
	assert.Equal(t, "DOWN", health.Status)
	assert.Equal(t, "UP", health.Checks["mongodb"].Status)
	assert.Equal(t, "cannot connect to outbox", health.Checks["outbox"].Message)
}
