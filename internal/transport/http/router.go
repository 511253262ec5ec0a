package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/avelier/bookreviews/internal/handlers"
	authmw "github.com/avelier/bookreviews/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	ReviewHandler *handlers.ReviewHandler
	BookHandler   *handlers.BookHandler
	SearchHandler *handlers.SearchHandler
	Gate          *authmw.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", d.AuthHandler.Register)
	v1.POST("/auth/login", d.AuthHandler.Login)
	v1.POST("/auth/logout", d.AuthHandler.Logout)

	// Public reads: catalog lookups, single reviews, per-book reviews, search.
	v1.GET("/books", d.BookHandler.Search)
	v1.GET("/books/:id", d.BookHandler.Get)
	v1.GET("/books/:id/reviews", d.ReviewHandler.ListByBook)
	v1.GET("/reviews/:id", d.ReviewHandler.Get)
	v1.GET("/search/reviews", d.SearchHandler.Search)

	reviews := v1.Group("/reviews", d.Gate.RequireLogin)
	reviews.GET("", d.ReviewHandler.List)
	reviews.POST("", d.ReviewHandler.Create)
	reviews.PUT("/:id", d.ReviewHandler.Update)
	reviews.DELETE("/:id", d.ReviewHandler.Delete)

	v1.GET("/users/:id", d.UserHandler.Get)
	v1.PATCH("/users/:id", d.UserHandler.Update, d.Gate.RequireLogin)

	admin := v1.Group("/users", d.Gate.AdminOnly)
	admin.GET("", d.UserHandler.List)
	admin.DELETE("/:id", d.UserHandler.Delete)
}
