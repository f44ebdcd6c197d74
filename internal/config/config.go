// Package config loads runtime settings from the environment.
//
// Values come from the process environment, with a .env file in the working
// directory loaded first by godotenv/autoload in cmd/server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// HTTP
	Port         string
	CookieSecure bool

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration, empty RedisAddr disables the cache and live feed
	RedisAddr string
	RedisDB   int

	// Sessions
	TokenExpire           time.Duration // 0 => tokens never expire
	SessionPrivateKeyPath string
	SessionPublicKeyPath  string

	// Leaderboard
	LeaderboardLimit        int
	LeaderboardCacheTTL     time.Duration
	LeaderboardPushInterval time.Duration

	LogLevel    logrus.Level
	Environment string // "development", "production" or "test"
}

// Load reads configuration from environment variables and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnvWithDefault("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		DatabaseName:          os.Getenv("DATABASE_NAME"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		SessionPrivateKeyPath: os.Getenv("SESSION_PRIVATE_KEY_PATH"),
		SessionPublicKeyPath:  os.Getenv("SESSION_PUBLIC_KEY_PATH"),
		Environment:           getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.LeaderboardLimit, err = getEnvInt("LEADERBOARD_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.LeaderboardLimit < 1 {
		return nil, fmt.Errorf("LEADERBOARD_LIMIT must be positive, got %d", cfg.LeaderboardLimit)
	}
	if cfg.CookieSecure, err = getEnvBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.TokenExpire, err = parseTokenExpire(getEnvWithDefault("TOKEN_EXPIRE_TIME", "72h")); err != nil {
		return nil, err
	}
	if cfg.LeaderboardCacheTTL, err = getEnvDuration("LEADERBOARD_CACHE_TTL", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.LeaderboardPushInterval, err = getEnvDuration("LEADERBOARD_PUSH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = logrus.ParseLevel(getEnvWithDefault("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// key files come in pairs
	if (cfg.SessionPrivateKeyPath == "") != (cfg.SessionPublicKeyPath == "") {
		return nil, fmt.Errorf("SESSION_PRIVATE_KEY_PATH and SESSION_PUBLIC_KEY_PATH must be set together")
	}

	return cfg, nil
}

// GetDatabaseURL combines the base URL and database name.
func (c *Config) GetDatabaseURL() string {
	return ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// ConstructDatabaseURL appends databaseName to baseURL, keeping any query
// parameters, and adds sslmode=disable when no sslmode is given.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" || baseURL == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var databaseURL string
	if strings.Contains(baseURL, "?") {
		parts := strings.SplitN(baseURL, "?", 2)
		databaseURL = fmt.Sprintf("%s/%s?%s", strings.TrimRight(parts[0], "/"), databaseName, parts[1])
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}
	return databaseURL
}

// parseTokenExpire accepts a Go duration, or "never"/"0" for tokens without expiry.
func parseTokenExpire(s string) (time.Duration, error) {
	if s == "never" || s == "0" || s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
