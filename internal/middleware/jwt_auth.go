package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// ContextKeyUser is where the verified claims are stored on the echo context.
const ContextKeyUser = "user"

// TokenParser verifies a raw access token.
type TokenParser interface {
	Parse(ctx context.Context, raw string) (*models.JwtCustomClaims, error)
}

// JWTAuthMiddleware extracts user claims from a Bearer token. Requests
// without an Authorization header pass through anonymously; a header that
// does not verify is rejected.
func JWTAuthMiddleware(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			// Expecting "Bearer <token>"
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := tokens.Parse(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(ContextKeyUser, claims)
			return next(c)
		}
	}
}

// Claims returns the verified claims of the request, or nil when anonymous.
func Claims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(ContextKeyUser).(*models.JwtCustomClaims)
	return claims
}
