package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	JWT       JWTConfig
	App       AppConfig
	Reconcile ReconcileConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	Provider  ProviderConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// ReconcileConfig tunes the attendance reconciliation engine and the daily
// batch run.
type ReconcileConfig struct {
	DebounceWindow time.Duration
	GracePeriod    time.Duration
	WorkerCount    int
	// RunHour is the UTC hour at which the scheduled daily run executes.
	RunHour int
}

// SMTPConfig holds the batch-report mailer settings. Reporting is disabled
// when Host is empty.
type SMTPConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	ReportRecipient string
}

type StorageConfig struct {
	Type     string
	BasePath string
	BaseURL  string
}

// ProviderConfig points at the external mobile-geofencing vendor API. The
// scheduled event pull is disabled when BaseURL is empty.
type ProviderConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
}

func Load() (*Config, error) {
	// A missing .env is fine in deployed environments; config comes from
	// the process environment there.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	dbMinConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "siteops"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: dbMaxConns,
		MinConns: dbMinConns,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Reconciliation configuration
	debounce, err := time.ParseDuration(getEnv("RECONCILE_DEBOUNCE_WINDOW", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_DEBOUNCE_WINDOW: %w", err)
	}
	grace, err := time.ParseDuration(getEnv("RECONCILE_GRACE_PERIOD", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_GRACE_PERIOD: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("RECONCILE_WORKER_COUNT", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_WORKER_COUNT: %w", err)
	}
	runHour, err := strconv.Atoi(getEnv("RECONCILE_RUN_HOUR", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_RUN_HOUR: %w", err)
	}

	config.Reconcile = ReconcileConfig{
		DebounceWindow: debounce,
		GracePeriod:    grace,
		WorkerCount:    workers,
		RunHour:        runHour,
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:            getEnv("SMTP_HOST", ""),
		Port:            smtpPort,
		Username:        getEnv("SMTP_USERNAME", ""),
		Password:        getEnv("SMTP_PASSWORD", ""),
		From:            getEnv("SMTP_FROM", ""),
		ReportRecipient: getEnv("SMTP_REPORT_RECIPIENT", ""),
	}

	// Storage configuration
	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	// Geofencing provider configuration
	config.Provider = ProviderConfig{
		BaseURL:      getEnv("GEOTRACK_BASE_URL", ""),
		TokenURL:     getEnv("GEOTRACK_TOKEN_URL", ""),
		ClientID:     getEnv("GEOTRACK_CLIENT_ID", ""),
		ClientSecret: getEnv("GEOTRACK_CLIENT_SECRET", ""),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Database.MaxConns < 1 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MAX_CONNS and DB_MIN_CONNS must satisfy 0 <= min <= max with max >= 1")
	}
	if c.Reconcile.WorkerCount < 1 {
		return fmt.Errorf("RECONCILE_WORKER_COUNT must be at least 1")
	}
	if c.Reconcile.RunHour < 0 || c.Reconcile.RunHour > 23 {
		return fmt.Errorf("RECONCILE_RUN_HOUR must be between 0 and 23")
	}
	if c.Provider.BaseURL != "" {
		if c.Provider.TokenURL == "" || c.Provider.ClientID == "" || c.Provider.ClientSecret == "" {
			return fmt.Errorf("GEOTRACK_TOKEN_URL, GEOTRACK_CLIENT_ID and GEOTRACK_CLIENT_SECRET are required when GEOTRACK_BASE_URL is set")
		}
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
