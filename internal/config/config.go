package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Tracing  TracingConfig
	LogLevel string `mapstructure:"LOG_LEVEL"`

	MetricsEnabled       bool `mapstructure:"METRICS_ENABLED"`
	EngagementMaxRetries int  `mapstructure:"ENGAGEMENT_MAX_RETRIES"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"SERVER_PORT"`
	Timeout         time.Duration `mapstructure:"SERVER_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	CORSOrigin      string        `mapstructure:"CORS_ORIGIN"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"JWT_SECRET"`
	TokenTTL        time.Duration `mapstructure:"TOKEN_TTL"`
	CookieSecure    bool          `mapstructure:"COOKIE_SECURE"`
	TokenRevocation bool          `mapstructure:"TOKEN_REVOCATION"`
	// StrictOwnership makes path-id user and category routes require the
	// path id to match the authenticated identity.
	StrictOwnership bool `mapstructure:"STRICT_OWNERSHIP"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"DB_DRIVER"`
	URI        string `mapstructure:"DB_URI"`
	Name       string `mapstructure:"DB_NAME"`
	Host       string `mapstructure:"DB_HOST"`
	Port       string `mapstructure:"DB_PORT"`
	User       string `mapstructure:"DB_USER"`
	Password   string `mapstructure:"DB_PASSWORD"`
	SSLMode    string `mapstructure:"DB_SSL_MODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// PostgresDSN renders the lib/pq connection string.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_TIMEOUT", "15s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("TOKEN_REVOCATION", false)
	v.SetDefault("STRICT_OWNERSHIP", false)
	v.SetDefault("DB_DRIVER", DriverMongo)
	v.SetDefault("DB_URI", "mongodb://localhost:27017")
	v.SetDefault("DB_NAME", "blogapi")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("SQLITE_PATH", "blogapi.db")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("ENGAGEMENT_MAX_RETRIES", 3)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v with environment lookups enabled.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config

	cfg.AppEnv = v.GetString("APP_ENV")
	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.MetricsEnabled = v.GetBool("METRICS_ENABLED")
	cfg.EngagementMaxRetries = v.GetInt("ENGAGEMENT_MAX_RETRIES")

	cfg.Server.Port = v.GetString("SERVER_PORT")
	cfg.Server.Timeout = v.GetDuration("SERVER_TIMEOUT")
	cfg.Server.ShutdownTimeout = v.GetDuration("SHUTDOWN_TIMEOUT")
	cfg.Server.CORSOrigin = v.GetString("CORS_ORIGIN")

	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Auth.TokenTTL = v.GetDuration("TOKEN_TTL")
	cfg.Auth.CookieSecure = v.GetBool("COOKIE_SECURE")
	cfg.Auth.TokenRevocation = v.GetBool("TOKEN_REVOCATION")
	cfg.Auth.StrictOwnership = v.GetBool("STRICT_OWNERSHIP")

	cfg.Database.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.Database.URI = v.GetString("DB_URI")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetString("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.SSLMode = v.GetString("DB_SSL_MODE")
	cfg.Database.SQLitePath = v.GetString("SQLITE_PATH")

	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	cfg.Tracing.Endpoint = v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Database.Driver {
	case DriverMongo, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.EngagementMaxRetries < 0 {
		return fmt.Errorf("ENGAGEMENT_MAX_RETRIES must not be negative, got %d", c.EngagementMaxRetries)
	}
	return nil
}
