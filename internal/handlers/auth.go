package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avelier/bookreviews/internal/events"
	"github.com/avelier/bookreviews/internal/hash"
	"github.com/avelier/bookreviews/internal/logging"
	"github.com/avelier/bookreviews/internal/models"
	"github.com/avelier/bookreviews/internal/service/token"
)

type AuthHandler struct {
	DB           *gorm.DB
	Tokens       *token.Service
	Producer     *events.Producer
	CookieSecure bool
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}
	if err := hash.ValidatePassword(req.Password); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "username already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: pwHash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// Two racing registrations for the same name: the store's uniqueness
		// constraint decides, the loser gets a conflict.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "username already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	h.publish(c, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	signed, err := h.Tokens.Issue(user.ID, user.Username, user.Admin)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "authentication failed")
	}

	c.SetCookie(token.SessionCookie(signed, h.Tokens.TTL, h.CookieSecure))

	h.publish(c, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"id":       user.ID,
			"username": user.Username,
			"admin":    user.Admin,
		},
		"token": signed,
	})
}

// Logout clears the cookie and tells the client not to cache the response.
// Tokens are stateless, a copy kept by the client stays valid until expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(token.ExpiredCookie(h.CookieSecure))

	header := c.Response().Header()
	header.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHandler) publish(c echo.Context, topic, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "topic", topic, "error", err)
	}
}
