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
	"github.com/avelier/bookreviews/internal/logging"
	authmw "github.com/avelier/bookreviews/internal/middleware/auth"
	"github.com/avelier/bookreviews/internal/models"
	"github.com/avelier/bookreviews/internal/service/search"
	"github.com/avelier/bookreviews/internal/util"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

// List returns the caller's own reviews. Admins may pass all=true to page
// through every review.
func (h *ReviewHandler) List(c echo.Context) error {
	if c.QueryParam("all") == "true" {
		if !authmw.CallerIsAdmin(c) {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return h.listAll(c)
	}

	var reviews []models.Review
	if err := h.DB.Where("user_id = ?", authmw.CallerID(c)).Order("id ASC").Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch reviews")
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) listAll(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Review{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch reviews")
	}

	var reviews []models.Review
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch reviews")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": reviews,
		"meta": echo.Map{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

// ListByBook is public: everyone can read the reviews of a book.
func (h *ReviewHandler) ListByBook(c echo.Context) error {
	bookID := c.Param("id")
	if bookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing book id")
	}

	var reviews []models.Review
	if err := h.DB.Where("book_id = ?", bookID).Order("id DESC").Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch reviews")
	}
	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid review id")
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "review not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch review")
	}
	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	var req struct {
		BookID string `json:"book_id"`
		Title  string `json:"title"`
		Body   string `json:"review"`
		Rating int    `json:"rating"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.BookID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "book id is required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	review := models.Review{
		UserID: authmw.CallerID(c),
		BookID: req.BookID,
		Title:  req.Title,
		Body:   req.Body,
		Rating: req.Rating,
	}
	if err := h.DB.Create(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create review")
	}

	h.index(c, &review)
	h.publish(c, fmt.Sprint(review.ID), map[string]interface{}{
		"type":      "review_created",
		"review_id": review.ID,
		"user_id":   review.UserID,
		"book_id":   review.BookID,
	})

	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid review id")
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "review not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update review")
	}

	if review.UserID != authmw.CallerID(c) && !authmw.CallerIsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own reviews")
	}

	var req struct {
		Title  *string `json:"title"`
		Body   *string `json:"review"`
		Rating *int    `json:"rating"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Title != nil {
		review.Title = *req.Title
	}
	if req.Body != nil {
		review.Body = *req.Body
	}
	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
		}
		review.Rating = *req.Rating
	}

	if err := h.DB.Save(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update review")
	}

	h.index(c, &review)

	return c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid review id")
	}

	var review models.Review
	if err := h.DB.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "review not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete review")
	}

	if review.UserID != authmw.CallerID(c) && !authmw.CallerIsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "you can only delete your own reviews")
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete review")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.DeleteReview(ctx, h.ES, h.Index, review.ID); err != nil {
		logging.FromContext(c.Request().Context()).Error("search cleanup failed", "review_id", review.ID, "error", err)
	}

	h.publish(c, fmt.Sprint(review.ID), map[string]interface{}{
		"type":      "review_deleted",
		"review_id": review.ID,
		"user_id":   review.UserID,
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *ReviewHandler) index(c echo.Context, review *models.Review) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexReview(ctx, h.ES, h.Index, review); err != nil {
		logging.FromContext(c.Request().Context()).Error("search index failed", "review_id", review.ID, "error", err)
	}
}

func (h *ReviewHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicReviewEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "topic", events.TopicReviewEvents, "error", err)
	}
}
