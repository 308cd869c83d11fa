package dto

import "github.com/golang-jwt/jwt/v5"

// AuthClaims defines the custom claims for JWT. The subject carries the user id;
// UserID is accepted for tokens that predate that convention.
type AuthClaims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the user id the token was issued for.
func (c *AuthClaims) Identity() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}
