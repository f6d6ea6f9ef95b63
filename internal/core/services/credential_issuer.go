package services

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

const (
	tokenIssuer = "blood-quest"

	// DefaultTokenTTL is the validity window of a session token.
	DefaultTokenTTL = 365 * 24 * time.Hour
)

// registered claims the caller may not choose
var reservedClaims = []string{"exp", "iat", "nbf", "iss", "jti"}

type CredentialIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.CredentialService = (*CredentialIssuer)(nil)

func NewCredentialIssuer(secret string, ttl time.Duration) *CredentialIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &CredentialIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs the caller-supplied claims into a session token. The claims
// must carry a non-empty email. The issuer never touches the store.
func (i *CredentialIssuer) Issue(claims map[string]any) (domain.Credential, error) {
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Credential{}, domain.Validation("email claim is required")
	}

	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	for _, k := range reservedClaims {
		delete(mc, k)
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	mc["email"] = email
	mc["iss"] = tokenIssuer
	mc["iat"] = now.Unix()
	mc["exp"] = expiresAt.Unix()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(i.secret)
	if err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential{Token: token, ExpiresAt: expiresAt}, nil
}

// Revoke always succeeds. Sessions are stateless: the client discards the
// token and nothing is kept server side.
func (i *CredentialIssuer) Revoke(string) error {
	return nil
}
