package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avelier/bookreviews/internal/events"
	"github.com/avelier/bookreviews/internal/hash"
	"github.com/avelier/bookreviews/internal/logging"
	authmw "github.com/avelier/bookreviews/internal/middleware/auth"
	"github.com/avelier/bookreviews/internal/models"
	"github.com/avelier/bookreviews/internal/service/search"
)

type UserHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

type userView struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewOf(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Admin:     u.Admin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// List is admin only, enforced by the router.
func (h *UserHandler) List(c echo.Context) error {
	var users []models.User
	if err := h.DB.Order("id ASC").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch users")
	}

	views := make([]userView, len(users))
	for i := range users {
		views[i] = viewOf(&users[i])
	}
	return c.JSON(http.StatusOK, echo.Map{"users": views})
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch user")
	}

	return c.JSON(http.StatusOK, viewOf(&user))
}

// Update lets an admin change username, password and the admin flag.
// A non-admin may change their own username and password only.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	callerID := authmw.CallerID(c)
	callerIsAdmin := authmw.CallerIsAdmin(c)

	if !callerIsAdmin && callerID != uint(id) {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own account")
	}

	var req struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
		Admin    *bool   `json:"admin"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Admin != nil && !callerIsAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "only administrators can change the admin flag")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}

	if req.Username != nil && *req.Username != user.Username {
		if *req.Username == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "username cannot be empty")
		}
		var taken models.User
		err := h.DB.Where("username = ? AND id <> ?", *req.Username, user.ID).First(&taken).Error
		if err == nil {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
		}
		user.Username = *req.Username
	}

	if req.Password != nil {
		if err := hash.ValidatePassword(*req.Password); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
		}
		user.PasswordHash = pwHash
	}

	if req.Admin != nil {
		user.Admin = *req.Admin
	}

	if err := h.DB.Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_updated",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, viewOf(&user))
}

// Delete is admin only, enforced by the router. An admin cannot delete their
// own account, and deleting a user who still owns reviews requires the
// explicit deleteReviews=true confirmation.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	if authmw.CallerID(c) == uint(id) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot delete your own account")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}

	var reviewCount int64
	if err := h.DB.Model(&models.Review{}).Where("user_id = ?", user.ID).Count(&reviewCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}

	if reviewCount > 0 && c.QueryParam("deleteReviews") != "true" {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":        fmt.Sprintf("user owns %d reviews, pass deleteReviews=true to delete them as well", reviewCount),
			"review_count": reviewCount,
		})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if reviewCount > 0 {
			if err := tx.Where("user_id = ?", user.ID).Delete(&models.Review{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}

	if reviewCount > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteByUser(ctx, h.ES, h.Index, user.ID); err != nil {
			logging.FromContext(c.Request().Context()).Error("search cleanup failed", "user_id", user.ID, "error", err)
		}
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":            "user_deleted",
		"user_id":         user.ID,
		"username":        user.Username,
		"deleted_reviews": reviewCount,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"deleted_reviews": reviewCount,
	})
}

func (h *UserHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "topic", events.TopicUserEvents, "error", err)
	}
}
