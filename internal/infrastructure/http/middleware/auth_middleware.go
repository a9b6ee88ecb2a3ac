package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/meeting-functions/errors"
	"github.com/johnquangdev/meeting-functions/pkg/jwt"
)

// ClaimsContextKey is the echo context key holding the verified *jwt.Claims
const ClaimsContextKey = "claims"

// EchoAuth returns an Echo middleware that requires a valid bearer token and
// sets the verified claims into the Echo context
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return apperrors.ErrUnauthenticated()
			}

			claims, err := manager.Validate(token)
			if err != nil {
				return apperrors.ErrInvalidToken(err)
			}

			c.Set(ClaimsContextKey, claims)
			return next(c)
		}
	}
}

// GetClaims returns the verified claims set by EchoAuth
func GetClaims(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*jwt.Claims)
	return claims, ok
}

func extractBearer(header string) string {
	// Expected format: "Bearer <token>"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
