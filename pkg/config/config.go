// Package config loads runtime settings from the environment, after merging a
// local .env file when one exists.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	// DevJWTSecret is used when JWT_SECRET is unset. Never rely on it outside development.
	DevJWTSecret = "dev-insecure-secret-change"
)

// Config holds all application configuration.
type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Admin    AdminConfig
}

type HTTPConfig struct {
	Address         string        // listen address (e.g. ":8081")
	Mode            string        // gin mode: release, debug, test
	ShutdownTimeout time.Duration // graceful shutdown budget
}

type DatabaseConfig struct {
	Storage     string // postgres or memory
	DSN         string
	AutoMigrate bool
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// AdminConfig optionally seeds one user at startup.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Load reads .env (without overriding variables that are already set) and then
// the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment with defaults.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		HTTP: HTTPConfig{
			Address: getEnv("HTTP_ADDRESS", ":8081"),
			Mode:    getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Storage: strings.ToLower(getEnv("STORAGE", StoragePostgres)),
			DSN:     os.Getenv("DB_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
	if cfg.HTTP.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate, err = getBool("DB_AUTO_MIGRATE", true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Storage {
	case StoragePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is not set; required for STORAGE=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q (want %s or %s)", c.Database.Storage, StoragePostgres, StorageMemory)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

// InsecureSecret reports whether the development JWT secret is in use.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JWTSecret == DevJWTSecret
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.ToLower(getEnv(key, ""))
	switch v {
	case "":
		return def, nil
	case "no", "off":
		return false, nil
	case "yes", "on":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
