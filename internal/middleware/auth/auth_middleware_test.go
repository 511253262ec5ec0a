package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/avelier/bookreviews/internal/service/token"
)

func newContext(t *testing.T, modify func(req *http.Request)) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if modify != nil {
		modify(req)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func okNext(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireLoginMissingToken(t *testing.T) {
	gate := NewGate(token.New([]byte("secret"), time.Hour))
	c := newContext(t, nil)

	err := gate.RequireLogin(okNext)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginCookie(t *testing.T) {
	svc := token.New([]byte("secret"), time.Hour)
	gate := NewGate(svc)

	signed, err := svc.Issue(7, "alice", false)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: signed})
	})

	require.NoError(t, gate.RequireLogin(okNext)(c))
	require.Equal(t, uint(7), CallerID(c))
	require.Equal(t, "alice", c.Get(CtxUsername))
	require.False(t, CallerIsAdmin(c))
}

func TestRequireLoginBearer(t *testing.T) {
	svc := token.New([]byte("secret"), time.Hour)
	gate := NewGate(svc)

	signed, err := svc.Issue(9, "bob", false)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
	})

	require.NoError(t, gate.RequireLogin(okNext)(c))
	require.Equal(t, uint(9), CallerID(c))
}

func TestCookieTakesPrecedenceOverHeader(t *testing.T) {
	svc := token.New([]byte("secret"), time.Hour)
	gate := NewGate(svc)

	cookieToken, err := svc.Issue(1, "cookieuser", false)
	require.NoError(t, err)
	headerToken, err := svc.Issue(2, "headeruser", false)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: cookieToken})
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+headerToken)
	})

	require.NoError(t, gate.RequireLogin(okNext)(c))
	require.Equal(t, uint(1), CallerID(c))
	require.Equal(t, "cookieuser", c.Get(CtxUsername))
}

func TestRequireLoginExpiredToken(t *testing.T) {
	expiredSvc := token.New([]byte("secret"), -time.Minute)
	gate := NewGate(token.New([]byte("secret"), time.Hour))

	signed, err := expiredSvc.Issue(1, "alice", false)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: signed})
	})

	err = gate.RequireLogin(okNext)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginWrongSecret(t *testing.T) {
	otherSvc := token.New([]byte("other-secret"), time.Hour)
	gate := NewGate(token.New([]byte("secret"), time.Hour))

	signed, err := otherSvc.Issue(1, "alice", false)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
	})

	err = gate.RequireLogin(okNext)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestAdminOnlyRejectsNonAdmin(t *testing.T) {
	svc := token.New([]byte("secret"), time.Hour)
	gate := NewGate(svc)

	signed, err := svc.Issue(5, "alice", false)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: signed})
	})

	err = gate.AdminOnly(okNext)(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestAdminOnlyAllowsAdmin(t *testing.T) {
	svc := token.New([]byte("secret"), time.Hour)
	gate := NewGate(svc)

	signed, err := svc.Issue(1, "root", true)
	require.NoError(t, err)

	c := newContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: token.CookieName, Value: signed})
	})

	require.NoError(t, gate.AdminOnly(okNext)(c))
	require.True(t, CallerIsAdmin(c))
}

func TestTokenFromRequestEmptyBearer(t *testing.T) {
	c := newContext(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer ")
	})

	_, ok := TokenFromRequest(c)
	require.False(t, ok)
}
