package middleware

import (
	"strings"

	"learnnest/internal/domain"
	"learnnest/internal/logger"
	"learnnest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID" // fiber.Ctx locals key
)

// Protected requires a valid bearer JWT and stores its subject under UserIDKey.
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return domain.NewUnauthenticatedError("Authorization header is missing")
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			return domain.NewUnauthenticatedError("Authorization scheme is not Bearer")
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return domain.NewUnauthenticatedError("Token is empty")
		}

		claims, err := authService.ValidateJWT(c.UserContext(), tokenString)
		if err != nil {
			return domain.NewError(domain.ErrUnauthenticated, "Invalid or expired token", err)
		}

		c.Locals(UserIDKey, claims.Identity())
		logger.Get().Debug("Request authenticated", zap.String("userID", claims.Identity()))
		return c.Next()
	}
}

// UserIDFromContext returns the identity set by Protected, or "".
func UserIDFromContext(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}
