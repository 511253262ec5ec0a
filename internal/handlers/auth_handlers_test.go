package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/avelier/bookreviews/internal/models"
	"github.com/avelier/bookreviews/internal/service/token"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	return &AuthHandler{
		DB:     newTestDB(t),
		Tokens: newTokenService(),
	}
}

func TestRegister(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	payload := map[string]string{"username": "alice", "password": "password123"}
	rec, c := doJSONRequest(e, http.MethodPost, "/auth/register", payload)

	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp.Username)
	require.NotZero(t, resp.ID)

	var stored models.User
	require.NoError(t, h.DB.Where("username = ?", "alice").First(&stored).Error)
	require.NotEqual(t, "password123", stored.PasswordHash)
	require.False(t, stored.Admin)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	payload := map[string]string{"username": "alice", "password": "password123"}
	rec, c := doJSONRequest(e, http.MethodPost, "/auth/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	_, c2 := doJSONRequest(e, http.MethodPost, "/auth/register", payload)
	require.Equal(t, http.StatusConflict, httpErrCode(t, h.Register(c2)))
}

func TestRegisterShortPassword(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	payload := map[string]string{"username": "alice", "password": "short"}
	_, c := doJSONRequest(e, http.MethodPost, "/auth/register", payload)
	require.Equal(t, http.StatusBadRequest, httpErrCode(t, h.Register(c)))
}

func TestRegisterMissingFields(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	_, c := doJSONRequest(e, http.MethodPost, "/auth/register", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, httpErrCode(t, h.Register(c)))

	_, c = doJSONRequest(e, http.MethodPost, "/auth/register", map[string]string{"password": "password123"})
	require.Equal(t, http.StatusBadRequest, httpErrCode(t, h.Register(c)))
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()
	createUser(t, h.DB, "alice", "password123", false)

	payload := map[string]string{"username": "alice", "password": "password123"}
	rec, c := doJSONRequest(e, http.MethodPost, "/auth/login", payload)

	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
			Admin    bool   `json:"admin"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp.User.Username)
	require.False(t, resp.User.Admin)
	require.NotEmpty(t, resp.Token)

	// The token in the body round-trips through the verifier.
	claims, err := h.Tokens.Parse(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Username)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, id)

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == token.CookieName {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie, "login must set the session cookie")
	require.Equal(t, resp.Token, sessionCookie.Value)
	require.True(t, sessionCookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, sessionCookie.SameSite)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()
	createUser(t, h.DB, "alice", "password123", false)

	_, c := doJSONRequest(e, http.MethodPost, "/auth/login", map[string]string{"username": "alice", "password": "wrongpassword"})
	require.Equal(t, http.StatusUnauthorized, httpErrCode(t, h.Login(c)))

	_, c = doJSONRequest(e, http.MethodPost, "/auth/login", map[string]string{"username": "nobody", "password": "password123"})
	require.Equal(t, http.StatusUnauthorized, httpErrCode(t, h.Login(c)))
}

func TestLoginMissingFields(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	_, c := doJSONRequest(e, http.MethodPost, "/auth/login", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusBadRequest, httpErrCode(t, h.Login(c)))
}

func TestLogout(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	rec, c := doJSONRequest(e, http.MethodPost, "/auth/logout", nil)
	require.NoError(t, h.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == token.CookieName {
			cleared = ck
		}
	}
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Less(t, cleared.MaxAge, 0)

	require.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	require.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}
