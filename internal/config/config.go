package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"clinic-orders/internal/model"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Redis    RedisConfig
	Webhook  WebhookConfig
	Catalog  CatalogConfig
	Approval ApprovalConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host       string
	Port       int
	PolicyPort int // policy manager API
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	ApplySchema     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// S3Config holds AWS S3 configuration for the catalogue source file.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "catalog/")
}

// RedisConfig holds configuration for the catalogue cache and import lock.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CacheTTL int // seconds
}

// WebhookConfig holds configuration for the outbound workflow webhook.
type WebhookConfig struct {
	URL     string
	Timeout int // seconds
}

// CatalogConfig holds configuration for the product import.
type CatalogConfig struct {
	SourcePath string
	Supplier   string
	BatchSize  int
}

// ApprovalConfig holds review workflow policy.
type ApprovalConfig struct {
	AdjustPolicy model.AdjustPolicy
}

// Load loads configuration from environment variables.
// Values from a .env file in the working directory are applied first
// without overriding variables already set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:       getEnv("SERVER_HOST", "0.0.0.0"),
			Port:       getEnvAsInt("SERVER_PORT", 8080),
			PolicyPort: getEnvAsInt("POLICY_SERVER_PORT", 8081),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "clinicorders"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
			ApplySchema:     getEnvAsBool("DB_APPLY_SCHEMA", false),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "catalog/"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsInt("REDIS_CACHE_TTL_SECONDS", 300),
		},
		Webhook: WebhookConfig{
			URL:     getEnv("WEBHOOK_URL", ""),
			Timeout: getEnvAsInt("WEBHOOK_TIMEOUT_SECONDS", 5),
		},
		Catalog: CatalogConfig{
			SourcePath: getEnv("CATALOG_SOURCE_PATH", "data/catalog/products.txt"),
			Supplier:   getEnv("CATALOG_SUPPLIER", "General"),
			BatchSize:  getEnvAsInt("CATALOG_BATCH_SIZE", 500),
		},
		Approval: ApprovalConfig{
			AdjustPolicy: model.AdjustPolicy(getEnv("APPROVAL_ADJUST_POLICY", string(model.AdjustKeepStatus))),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.PolicyPort < 1 || c.Server.PolicyPort > 65535 {
		return fmt.Errorf("invalid policy server port: %d", c.Server.PolicyPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when redis is enabled")
		}
		if c.Redis.CacheTTL < 1 {
			return fmt.Errorf("redis cache TTL must be at least 1 second")
		}
	}

	if c.Webhook.Timeout < 1 {
		return fmt.Errorf("webhook timeout must be at least 1 second")
	}

	if c.Catalog.SourcePath == "" {
		return fmt.Errorf("catalog source path is required")
	}

	if c.Catalog.BatchSize < 1 {
		return fmt.Errorf("catalog batch size must be at least 1")
	}

	if !c.Approval.AdjustPolicy.Valid() {
		return fmt.Errorf("invalid approval adjust policy: %s (must be keep_status or approve)", c.Approval.AdjustPolicy)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the ordering API address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PolicyAddress returns the policy manager API address.
func (c *ServerConfig) PolicyAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.PolicyPort)
}

// TTL returns the cache TTL as a duration.
func (c *RedisConfig) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// TimeoutDuration returns the webhook timeout as a duration.
func (c *WebhookConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
