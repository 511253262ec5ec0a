package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminOnly runs on top of RequireLogin and additionally demands the admin claim.
func (g *Gate) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return g.RequireLogin(func(c echo.Context) error {
		if admin, _ := c.Get(CtxAdmin).(bool); !admin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	})
}

// CallerID returns the authenticated user id stashed by RequireLogin.
func CallerID(c echo.Context) uint {
	id, _ := c.Get(CtxUserID).(uint)
	return id
}

// CallerIsAdmin reports whether the authenticated caller carries the admin claim.
func CallerIsAdmin(c echo.Context) bool {
	admin, _ := c.Get(CtxAdmin).(bool)
	return admin
}
