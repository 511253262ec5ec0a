package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/avelier/bookreviews/internal/hash"
	authmw "github.com/avelier/bookreviews/internal/middleware/auth"
	"github.com/avelier/bookreviews/internal/models"
	"github.com/avelier/bookreviews/internal/service/token"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Review{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTokenService() *token.Service {
	return token.New([]byte("test-secret"), time.Hour)
}

func doJSONRequest(e *echo.Echo, method, target string, payload interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

// asUser stamps the context the way the gate middleware would after a
// successful token check.
func asUser(c echo.Context, id uint, username string, admin bool) {
	c.Set(authmw.CtxUserID, id)
	c.Set(authmw.CtxUsername, username)
	c.Set(authmw.CtxAdmin, admin)
}

func createUser(t *testing.T, db *gorm.DB, username, password string, admin bool) *models.User {
	t.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{Username: username, PasswordHash: pwHash, Admin: admin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createReview(t *testing.T, db *gorm.DB, userID uint, bookID, title string) *models.Review {
	t.Helper()
	review := &models.Review{
		UserID: userID,
		BookID: bookID,
		Title:  title,
		Body:   "some thoughts about the book",
		Rating: 4,
	}
	require.NoError(t, db.Create(review).Error)
	return review
}

func httpErrCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}
