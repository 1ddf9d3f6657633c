package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const defaultPlaceholderImage = "https://images.unsplash.com/photo-1610030469983-98e550d6193c?w=400"

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Reporting ReportingConfig
	Email     EmailConfig
	MongoDB   MongoDBConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port        string
	FrontendURL string
	CORSOrigins []string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver      string // postgres or memory
	DatabaseURL string
}

// AuthConfig holds token signing and login settings.
type AuthConfig struct {
	JWTSecret          string
	AdminEmail         string
	AdminPassword      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// GoogleEnabled reports whether Google sign-in is configured.
func (a AuthConfig) GoogleEnabled() bool {
	return a.GoogleClientID != "" && a.GoogleClientSecret != ""
}

// StorageConfig holds image storage options.
type StorageConfig struct {
	Driver              string // bucket or local
	BaseURL             string
	APIKey              string
	Bucket              string
	UploadDir           string
	PublicBaseURL       string
	PlaceholderImageURL string
}

// ReportingConfig holds analytics thresholds and the digest schedule.
type ReportingConfig struct {
	Timezone             string
	LowStockThreshold    int
	FastSellingThreshold int
	WindowDays           int
	DigestCron           string
	DigestEmailTo        string
}

// Location resolves Timezone, falling back to UTC.
func (r ReportingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EmailConfig holds the transactional mail API settings.
type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

// MongoDBConfig holds settings for the digest archive. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env is fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	lowStock, err := getenvInt("LOW_STOCK_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	fastSelling, err := getenvInt("FAST_SELLING_THRESHOLD", 10)
	if err != nil {
		return nil, err
	}
	window, err := getenvInt("FAST_SELLING_WINDOW_DAYS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getenvWithDefault("APP_PORT", getenvWithDefault("PORT", "8080")),
			FrontendURL: getenvWithDefault("FRONTEND_URL", "http://localhost:3000"),
			CORSOrigins: splitList(getenvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getenvWithDefault("STORE_DRIVER", "postgres")),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:          os.Getenv("JWT_SECRET"),
			AdminEmail:         os.Getenv("ADMIN_EMAIL"),
			AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		Storage: StorageConfig{
			Driver:              strings.ToLower(getenvWithDefault("STORAGE_DRIVER", "local")),
			BaseURL:             strings.TrimRight(os.Getenv("STORAGE_BASE_URL"), "/"),
			APIKey:              os.Getenv("STORAGE_API_KEY"),
			Bucket:              getenvWithDefault("STORAGE_BUCKET", "saree-images"),
			UploadDir:           getenvWithDefault("UPLOAD_DIR", "uploads"),
			PublicBaseURL:       strings.TrimRight(getenvWithDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			PlaceholderImageURL: getenvWithDefault("PLACEHOLDER_IMAGE_URL", defaultPlaceholderImage),
		},
		Reporting: ReportingConfig{
			Timezone:             getenvWithDefault("REPORT_TIMEZONE", "Asia/Kolkata"),
			LowStockThreshold:    lowStock,
			FastSellingThreshold: fastSelling,
			WindowDays:           window,
			DigestCron:           lookupEnvWithDefault("DIGEST_CRON", "0 9 * * *"),
			DigestEmailTo:        os.Getenv("DIGEST_EMAIL_TO"),
		},
		Email: EmailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			FromAddress:  os.Getenv("EMAIL_FROM_ADDRESS"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "ruhmrita"),
		},
		LogLevel: os.Getenv("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be provided when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", c.Store.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.UploadDir == "" {
			return errors.New("UPLOAD_DIR must not be empty")
		}
	case "bucket":
		if c.Storage.BaseURL == "" || c.Storage.APIKey == "" {
			return errors.New("STORAGE_BASE_URL and STORAGE_API_KEY must be provided when STORAGE_DRIVER=bucket")
		}
		if c.Storage.Bucket == "" {
			return errors.New("STORAGE_BUCKET must not be empty")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be bucket or local, got %q", c.Storage.Driver)
	}

	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE is invalid: %w", err)
	}
	if c.Reporting.LowStockThreshold <= 0 {
		return errors.New("LOW_STOCK_THRESHOLD must be positive")
	}
	if c.Reporting.FastSellingThreshold <= 0 {
		return errors.New("FAST_SELLING_THRESHOLD must be positive")
	}
	if c.Reporting.WindowDays <= 0 {
		return errors.New("FAST_SELLING_WINDOW_DAYS must be positive")
	}
	if c.Reporting.DigestCron != "" {
		if _, err := cron.ParseStandard(c.Reporting.DigestCron); err != nil {
			return fmt.Errorf("DIGEST_CRON is invalid: %w", err)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// lookupEnvWithDefault keeps a value that is set but empty; only an unset key
// falls back.
func lookupEnvWithDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
