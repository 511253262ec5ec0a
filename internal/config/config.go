package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/avelier/bookreviews/internal/models"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TokenTTL is the lifetime of a session token and of the cookie that carries it.
const TokenTTL = 30 * 24 * time.Hour

// devSecret is only ever used outside production, and only when JWT_SECRET is unset.
const devSecret = "dev-only-secret-do-not-deploy"

var ErrMissingSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	AppEnv       string
	HTTPAddr     string
	DB_HOST      string
	DB_PORT      string
	DB_USER      string
	DB_PASSWORD  string
	DB_NAME      string
	ES_URL       string
	ES_USER      string
	ES_PASSWORD  string
	KafkaBrokers []string
	JWTSecret    string
	LogLevel     string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		AppEnv:       envDefault("APP_ENV", "development"),
		HTTPAddr:     envDefault("HTTP_ADDR", ":8080"),
		DB_HOST:      os.Getenv("DB_HOST"),
		DB_PORT:      os.Getenv("DB_PORT"),
		DB_USER:      os.Getenv("DB_USER"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		ES_URL:       os.Getenv("ES_URL"),
		ES_USER:      os.Getenv("ES_USER"),
		ES_PASSWORD:  os.Getenv("ES_PASSWORD"),
		KafkaBrokers: csv(os.Getenv("KAFKA_BROKERS")),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		LogLevel:     envDefault("LOG_LEVEL", "info"),
	}

	if config.JWTSecret == "" {
		if config.IsProduction() {
			return nil, ErrMissingSecret
		}
		log.Printf("WARNING: JWT_SECRET not set, using development fallback secret")
		config.JWTSecret = devSecret
	}

	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
	)
}

func InitDB(c *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(c.DSN()), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.AutoMigrate(&models.User{}, &models.Review{}); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	return db, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
