package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelier/bookreviews/internal/catalog"
	"github.com/avelier/bookreviews/internal/util"
)

type BookHandler struct {
	Catalog *catalog.Client
}

func (h *BookHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing search query")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, books, err := h.Catalog.Search(c.Request().Context(), q, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "book catalog unavailable")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "books": books})
}

func (h *BookHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing book id")
	}

	book, err := h.Catalog.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "book not found")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "book catalog unavailable")
	}

	return c.JSON(http.StatusOK, book)
}
