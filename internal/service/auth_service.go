package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnnest/internal/config"
	"learnnest/internal/dto"
	"learnnest/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ErrInvalidJWTToken is returned for any token that fails validation.
var ErrInvalidJWTToken = errors.New("invalid jwt token")

// AuthService validates bearer tokens issued by the identity provider.
type AuthService interface {
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	// CreateJWT signs an HS256 token for userID. Used by tooling and tests;
	// the service itself never issues tokens to callers.
	CreateJWT(userID string, ttl time.Duration) (string, error)
}

type authServiceImpl struct {
	secret []byte
	issuer string
}

func NewAuthService(cfg config.AuthConfig) (AuthService, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt secret key is not configured")
	}
	return &authServiceImpl{secret: []byte(cfg.JWTSecretKey), issuer: cfg.Issuer}, nil
}

func (s *authServiceImpl) CreateJWT(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func tokenSnippet(token string) string {
	return token[:min(len(token), 20)] + "..."
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &dto.AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Warn("JWT token expired", zap.String("token_snippet", tokenSnippet(tokenString)))
		} else {
			logger.Get().Warn("JWT validation failed", zap.Error(err), zap.String("token_snippet", tokenSnippet(tokenString)))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if !token.Valid || claims.Identity() == "" {
		return nil, fmt.Errorf("%w: token carries no subject", ErrInvalidJWTToken)
	}
	return claims, nil
}
