package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/campuslink/auth-service/app/entity"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type authResolver interface {
	VerifyAccessToken(tokenString string) (uint64, error)
	CurrentUser(ctx context.Context, userID uint64) (*entity.User, error)
}

type AuthMiddleware struct {
	authService authResolver
}

func NewAuthMiddleware(authService authResolver) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth verifies the bearer token and re-resolves its subject to a
// live user, so a stale token for a vanished account is rejected the same
// way as an invalid one.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "missing authorization header",
			})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid authorization header format",
			})
		}

		userID, err := m.authService.VerifyAccessToken(parts[1])
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid or expired token",
			})
		}

		user, err := m.authService.CurrentUser(c.Request().Context(), userID)
		if err != nil {
			logrus.WithField("user_id", userID).Debug("Token subject no longer resolves to a user")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "could not validate credentials",
			})
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)

		return next(c)
	}
}
