package auth

import (
	"net/http"

	"github.com/avelier/bookreviews/internal/service/token"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxAdmin    = "admin"
)

type Gate struct {
	Tokens *token.Service
}

func NewGate(tokens *token.Service) *Gate {
	return &Gate{Tokens: tokens}
}

// RequireLogin fails closed: any request it cannot positively attribute to a
// valid token is rejected with 401.
func (g *Gate) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := TokenFromRequest(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		claims, err := g.Tokens.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxAdmin, claims.Admin)

		return next(c)
	}
}
