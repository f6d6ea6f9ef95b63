package services_test

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/services"
)

func TestAccessGuard_Verify_Rejects(t *testing.T) {
	guard := services.NewAccessGuard(testSecret)
	future := time.Now().Add(time.Hour).Unix()

	valid := signed(t, testSecret, jwt.MapClaims{"email": "donor@example.com", "iss": "blood-quest", "exp": future})
	parts := strings.Split(valid, ".")
	forgedPayload := base64.RawURLEncoding.EncodeToString(
		[]byte(`{"email":"admin@example.com","iss":"blood-quest","exp":` + jwtNumber(future) + `}`))
	tampered := parts[0] + "." + forgedPayload + "." + parts[2]

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": "donor@example.com", "iss": "blood-quest", "exp": future,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{name: "missing_token", token: "", message: "missing token"},
		{name: "garbage", token: "not-a-jwt", message: "invalid token"},
		{
			name:    "expired",
			token:   signed(t, testSecret, jwt.MapClaims{"email": "donor@example.com", "iss": "blood-quest", "exp": time.Now().Add(-time.Minute).Unix()}),
			message: "token has expired",
		},
		{name: "tampered_payload", token: tampered, message: "invalid token"},
		{
			name:    "wrong_secret",
			token:   signed(t, "another-secret", jwt.MapClaims{"email": "donor@example.com", "iss": "blood-quest", "exp": future}),
			message: "invalid token",
		},
		{name: "alg_none", token: none, message: "invalid token"},
		{
			name:    "no_expiry",
			token:   signed(t, testSecret, jwt.MapClaims{"email": "donor@example.com", "iss": "blood-quest"}),
			message: "invalid token",
		},
		{
			name:    "wrong_issuer",
			token:   signed(t, testSecret, jwt.MapClaims{"email": "donor@example.com", "iss": "elsewhere", "exp": future}),
			message: "invalid token",
		},
		{
			name:    "missing_email",
			token:   signed(t, testSecret, jwt.MapClaims{"iss": "blood-quest", "exp": future}),
			message: "invalid token: missing email",
		},
		{
			name:    "empty_email",
			token:   signed(t, testSecret, jwt.MapClaims{"email": "", "iss": "blood-quest", "exp": future}),
			message: "invalid token: missing email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := guard.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
			assert.Equal(t, tt.message, err.Error())
			assert.Empty(t, id.Email)
		})
	}
}

func jwtNumber(n int64) string {
	return strconv.FormatInt(n, 10)
}
