package services

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// AccessGuard verifies session tokens. It is synchronous and never reads the
// store, so a rejected token costs no store round trip.
type AccessGuard struct {
	secret []byte
	parser *jwt.Parser
}

var _ ports.IdentityVerifier = (*AccessGuard)(nil)

func NewAccessGuard(secret string) *AccessGuard {
	return &AccessGuard{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(tokenIssuer),
		),
	}
}

func (g *AccessGuard) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.Unauthenticated("missing token")
	}

	claims := jwt.MapClaims{}
	parsed, err := g.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.Unauthenticated("token has expired")
		}
		return domain.Identity{}, domain.Unauthenticated("invalid token")
	}
	if !parsed.Valid {
		return domain.Identity{}, domain.Unauthenticated("invalid token")
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return domain.Identity{}, domain.Unauthenticated("invalid token: missing email")
	}
	return domain.Identity{Email: email}, nil
}
