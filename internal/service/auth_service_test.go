package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
	"pasassistant/internal/domain"
	"pasassistant/internal/service"
)

var jwtCfg = config.JWTConfig{Secret: "test-secret-key-for-testing", Issuer: "pas-assistant", Expiry: time.Hour}

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc := service.NewAuthService(jwtCfg)

	token, expiresAt, err := svc.IssueToken("  alice@example.com ")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, "pas-assistant", claims.Issuer)
}

func TestAuthService_IssueRequiresEmail(t *testing.T) {
	_, _, err := service.NewAuthService(jwtCfg).IssueToken(" ")
	assert.Error(t, err)
}

func TestAuthService_RejectsInvalidTokens(t *testing.T) {
	svc := service.NewAuthService(jwtCfg)

	expired := service.NewAuthService(config.JWTConfig{Secret: jwtCfg.Secret, Expiry: -time.Minute})
	expiredToken, _, err := expired.IssueToken("alice@example.com")
	require.NoError(t, err)

	other := service.NewAuthService(config.JWTConfig{Secret: "another-secret", Expiry: time.Hour})
	foreignToken, _, err := other.IssueToken("alice@example.com")
	require.NoError(t, err)

	wrongAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"refresh"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "alice@example.com",
	}).SignedString([]byte(jwtCfg.Secret))
	require.NoError(t, err)

	noEmail, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"access"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtCfg.Secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":        "not-a-token",
		"expired":        expiredToken,
		"foreign secret": foreignToken,
		"wrong audience": wrongAudience,
		"no email":       noEmail,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
