package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avelier/bookreviews/internal/catalog"
	"github.com/avelier/bookreviews/internal/config"
	"github.com/avelier/bookreviews/internal/es"
	"github.com/avelier/bookreviews/internal/events"
	"github.com/avelier/bookreviews/internal/handlers"
	"github.com/avelier/bookreviews/internal/logging"
	authmw "github.com/avelier/bookreviews/internal/middleware/auth"
	loggingmw "github.com/avelier/bookreviews/internal/middleware/logging"
	"github.com/avelier/bookreviews/internal/service/search"
	"github.com/avelier/bookreviews/internal/service/token"
	httpserver "github.com/avelier/bookreviews/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(configuration.LogLevel)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	producer := events.NewProducer(configuration.KafkaBrokers)
	if producer == nil {
		logger.Warn("kafka brokers not configured, events disabled")
	}

	searchIndex := search.DefaultIndex
	searchClient, err := newSearchClient(configuration)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}
	if searchClient == nil {
		logger.Warn("elasticsearch not configured, review search disabled")
	}

	tokens := token.New([]byte(configuration.JWTSecret), config.TokenTTL)
	gate := authmw.NewGate(tokens)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			DB:           db,
			Tokens:       tokens,
			Producer:     producer,
			CookieSecure: configuration.IsProduction(),
		},
		UserHandler:   &handlers.UserHandler{DB: db, Producer: producer, ES: searchClient, Index: searchIndex},
		ReviewHandler: &handlers.ReviewHandler{DB: db, Producer: producer, ES: searchClient, Index: searchIndex},
		BookHandler:   &handlers.BookHandler{Catalog: catalog.NewClient()},
		SearchHandler: &handlers.SearchHandler{ES: searchClient, Index: searchIndex},
		Gate:          gate,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", configuration.HTTPAddr, "env", configuration.AppEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func newSearchClient(cfg *config.Config) (*elasticsearch.Client, error) {
	if cfg.ES_URL == "" {
		return nil, nil
	}
	return es.NewClient(cfg)
}
