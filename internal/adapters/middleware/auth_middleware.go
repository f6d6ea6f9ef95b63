package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// TokenCookieName is the session cookie set by POST /jwt.
const TokenCookieName = "token"

type AuthMiddleware struct {
	verifier ports.IdentityVerifier
	logger   *slog.Logger
}

func NewAuthMiddleware(verifier ports.IdentityVerifier, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

type contextKey string

const identityKey contextKey = "identity"

// RequireAuth rejects the request with 401 unless it carries a valid session
// token. Nothing downstream runs for a rejected request.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.verifier.Verify(tokenFromRequest(r))
		if err != nil {
			m.logger.DebugContext(r.Context(), "session rejected", "path", r.URL.Path, "error", err)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// tokenFromRequest reads the session cookie, falling back to a Bearer
// Authorization header. Query parameters are never consulted.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
