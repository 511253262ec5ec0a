package auth

import (
	"strings"

	"github.com/avelier/bookreviews/internal/service/token"
	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// TokenFromRequest tries the session cookie first and falls back to the
// Authorization header. When both are present the cookie wins.
func TokenFromRequest(c echo.Context) (string, bool) {
	if cookie, err := c.Cookie(token.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, bearerPrefix) {
		if raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)); raw != "" {
			return raw, true
		}
	}

	return "", false
}
