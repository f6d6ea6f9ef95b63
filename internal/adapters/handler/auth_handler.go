package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/httputil"
	"github.com/AchilleasB/blood-quest/donation-service/internal/adapters/middleware"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	Production bool
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}

type AuthHandler struct {
	credentials ports.CredentialService
	cookies     CookieOptions
	logger      *slog.Logger
}

func NewAuthHandler(credentials ports.CredentialService, cookies CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{credentials: credentials, cookies: cookies, logger: logger}
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// claimsRequest is the caller-supplied claim set for a new session.
type claimsRequest map[string]any

func (c claimsRequest) Validate() error {
	email, _ := c["email"].(string)
	return validation.Errors{
		"email": validation.Validate(email, validation.Required, is.Email),
	}.Filter()
}

func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/jwt", h.IssueToken)
	r.Post("/logout", h.Logout)
}

// IssueToken signs the posted claims and sets them as the session cookie.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var claims claimsRequest
	if err := httputil.Decode(r, &claims); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cred, err := h.credentials.Issue(claims)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue session token", "error", err)
		httputil.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    cred.Token,
		Path:     "/",
		Expires:  cred.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookies.Production,
		SameSite: h.cookies.sameSite(),
	})
	httputil.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Logout clears the session cookie. Tokens are stateless, so this always
// succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.TokenCookieName); err == nil {
		_ = h.credentials.Revoke(c.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Production,
		SameSite: h.cookies.sameSite(),
	})
	httputil.WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// identity returns the caller set by the auth middleware.
func identity(r *http.Request) (domain.Identity, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.Email == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}
