package service

import (
	"context"
	"testing"
	"time"

	"learnnest/internal/config"
	"learnnest/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestAuthService(t *testing.T) AuthService {
	t.Helper()
	svc, err := NewAuthService(config.AuthConfig{JWTSecretKey: testSecret, Issuer: "learnnest"})
	require.NoError(t, err)
	return svc
}

func TestNewAuthService_RequiresSecret(t *testing.T) {
	_, err := NewAuthService(config.AuthConfig{})
	assert.Error(t, err)
}

func TestAuthService_RoundTrip(t *testing.T) {
	svc := newTestAuthService(t)
	token, err := svc.CreateJWT("user-1", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateJWT(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Identity())
	assert.Equal(t, "learnnest", claims.Issuer)
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthService_ValidateJWT_Rejects(t *testing.T) {
	svc := newTestAuthService(t)
	now := time.Now()
	valid := jwt.RegisteredClaims{
		Issuer:    "learnnest",
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"

	noExpiry := valid
	noExpiry.ExpiresAt = nil

	noSubject := valid
	noSubject.Subject = ""

	tests := map[string]string{
		"garbage":      "not.a.token",
		"wrong secret": sign(t, jwt.SigningMethodHS256, []byte("other-secret"), &dto.AuthClaims{RegisteredClaims: valid}),
		"wrong method": sign(t, jwt.SigningMethodHS512, []byte(testSecret), &dto.AuthClaims{RegisteredClaims: valid}),
		"expired":      sign(t, jwt.SigningMethodHS256, []byte(testSecret), &dto.AuthClaims{RegisteredClaims: expired}),
		"wrong issuer": sign(t, jwt.SigningMethodHS256, []byte(testSecret), &dto.AuthClaims{RegisteredClaims: wrongIssuer}),
		"no expiry":    sign(t, jwt.SigningMethodHS256, []byte(testSecret), &dto.AuthClaims{RegisteredClaims: noExpiry}),
		"no subject":   sign(t, jwt.SigningMethodHS256, []byte(testSecret), &dto.AuthClaims{RegisteredClaims: noSubject}),
		"empty":        "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateJWT(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidJWTToken)
		})
	}
}

func TestAuthService_LegacyUserIDClaim(t *testing.T) {
	svc := newTestAuthService(t)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), &dto.AuthClaims{
		UserID: "legacy-user",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "learnnest",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateJWT(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "legacy-user", claims.Identity())
}
