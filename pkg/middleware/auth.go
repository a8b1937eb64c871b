package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"krishi/pkg/apperr"
	"krishi/pkg/auth/token"
)

const userKey = "user"

const unauthorized = "Unauthorized - Invalid or missing token"

type AccessVerifier interface {
	VerifyAccessToken(raw string) (*token.AccessClaims, error)
}

// RequireAuth rejects the request with 401 unless it carries a valid
// "Authorization: Bearer <access token>".
func RequireAuth(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return apperr.Auth(unauthorized)
			}
			claims, err := v.VerifyAccessToken(raw)
			if err != nil {
				return apperr.Auth(unauthorized)
			}
			c.Set(userKey, claims)
			return next(c)
		}
	}
}

// CurrentUser returns the claims RequireAuth stored on the context.
func CurrentUser(c echo.Context) (*token.AccessClaims, bool) {
	claims, ok := c.Get(userKey).(*token.AccessClaims)
	return claims, ok && claims != nil
}

func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
