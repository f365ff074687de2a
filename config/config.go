package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	Production bool
	LogLevel   slog.Level

	DBDriver      string
	DatabaseURL   string
	MongoDatabase string

	SessionKey   []byte
	CookieSecure bool
	// AuthProviderSecret verifies tokens issued by the external auth provider.
	AuthProviderSecret []byte

	PostmarkToken string
	EmailSender   string

	MediaDir     string
	MediaBaseURL string

	Location             *time.Location
	MissingProductPolicy string
	RestoreStockOnCancel bool
	IdempotencyWindow    time.Duration
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using process environment")
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8000"),
		Production:           getEnv("APP_ENV", "development") == "production",
		DBDriver:             strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL:          getEnv("DATABASE_URL", "elbeg.db"),
		MongoDatabase:        getEnv("MONGO_DATABASE", "elbeg"),
		CookieSecure:         getEnv("COOKIE_SECURE", "false") == "true",
		AuthProviderSecret:   []byte(os.Getenv("AUTH_PROVIDER_SECRET")),
		PostmarkToken:        os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:          getEnv("EMAIL_SENDER", "orders@elbeg.mn"),
		MediaDir:             getEnv("MEDIA_DIR", "uploads"),
		MediaBaseURL:         strings.TrimRight(getEnv("MEDIA_BASE_URL", "/uploads"), "/"),
		MissingProductPolicy: getEnv("MISSING_PRODUCT_POLICY", "skip"),
		RestoreStockOnCancel: getEnv("RESTORE_STOCK_ON_CANCEL", "true") != "false",
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Warn("Invalid PORT, falling back to default", "PORT", cfg.Port)
		cfg.Port = "8000"
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		slog.Warn("Invalid LOG_LEVEL, using info", "error", err)
		cfg.LogLevel = slog.LevelInfo
	}

	switch cfg.DBDriver {
	case "sqlite", "mysql", "postgres", "mongo":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	switch cfg.MissingProductPolicy {
	case "skip", "fail":
	default:
		slog.Warn("Invalid MISSING_PRODUCT_POLICY, using skip", "value", cfg.MissingProductPolicy)
		cfg.MissingProductPolicy = "skip"
	}

	window, err := time.ParseDuration(getEnv("IDEMPOTENCY_WINDOW", "24h"))
	if err != nil || window <= 0 {
		slog.Warn("Invalid IDEMPOTENCY_WINDOW, using 24h", "error", err)
		window = 24 * time.Hour
	}
	cfg.IdempotencyWindow = window

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Ulaanbaatar"))
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.SessionKey = decodeKey("SESSION_KEY")
	if len(cfg.AuthProviderSecret) == 0 {
		slog.Warn("AUTH_PROVIDER_SECRET not set, provider token exchange is disabled")
	}

	return cfg, nil
}

// decodeKey reads a base64 key of at least 32 bytes, generating a random one
// for development when it is missing or too short.
func decodeKey(name string) []byte {
	raw := os.Getenv(name)
	if raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err == nil && len(key) >= 32 {
			return key
		}
		slog.Warn(name+" is invalid or shorter than 32 bytes, generating a random key", "error", err)
	} else {
		slog.Warn(name + " not set, generating a random key; sessions will not survive a restart")
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return key
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
