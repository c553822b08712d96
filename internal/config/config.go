// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	RateLimit   RateLimitConfig
	License     LicenseConfig
	CORS        CORSConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Audit       AuditConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ReadTimeout    int
	WriteTimeout   int
	IdleTimeout    int
	TrustedProxies []string
}

type DatabaseConfig struct {
	Driver       string // "postgres" or "sqlite"
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type RateLimitConfig struct {
	VerifyMax    int
	VerifyWindow time.Duration
	AuthRPS      float64
	AuthBurst    int
}

type LicenseConfig struct {
	KeyPrefix          string
	KeySegments        int
	KeySegmentLength   int
	PasswordHashScheme string // "bcrypt" or "sha256"
	BcryptCost         int    // 0 selects bcrypt.DefaultCost
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type AuditConfig struct {
	Enabled bool
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	environment := getEnv("ENVIRONMENT", "development")
	logFormat := "text"
	if environment == "production" {
		logFormat = "json"
	}

	config := &Config{
		Environment: environment,
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", ""),
			ReadTimeout:    getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:   getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:    getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			TrustedProxies: getEnvAsList("SERVER_TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", ""),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", ""),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		RateLimit: RateLimitConfig{
			VerifyMax:    getEnvAsInt("VERIFY_RATE_LIMIT_MAX", 10),
			VerifyWindow: getEnvAsDuration("VERIFY_RATE_LIMIT_WINDOW", time.Minute),
			AuthRPS:      getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 1.0),
			AuthBurst:    getEnvAsInt("AUTH_RATE_LIMIT_BURST", 20),
		},
		License: LicenseConfig{
			KeyPrefix:          getEnv("KEY_PREFIX", "FORTE"),
			KeySegments:        getEnvAsInt("KEY_SEGMENTS", 3),
			KeySegmentLength:   getEnvAsInt("KEY_SEGMENT_LENGTH", 4),
			PasswordHashScheme: getEnv("PASSWORD_HASH_SCHEME", "bcrypt"),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 0),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", logFormat),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Audit: AuditConfig{
			Enabled: getEnvAsBool("AUDIT_EVENTS_ENABLED", true),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.Host != "" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.RateLimit.VerifyMax < 1 {
		return fmt.Errorf("VERIFY_RATE_LIMIT_MAX must be at least 1")
	}
	if c.RateLimit.VerifyWindow <= 0 {
		return fmt.Errorf("VERIFY_RATE_LIMIT_WINDOW must be positive")
	}

	if c.License.KeySegments < 1 || c.License.KeySegmentLength < 1 {
		return fmt.Errorf("license key format needs at least one segment of one character")
	}

	switch c.License.PasswordHashScheme {
	case "bcrypt", "sha256":
	default:
		return fmt.Errorf("unsupported password hash scheme %q", c.License.PasswordHashScheme)
	}

	if c.License.BcryptCost != 0 && (c.License.BcryptCost < 4 || c.License.BcryptCost > 31) {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
