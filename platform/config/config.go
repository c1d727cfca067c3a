// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// APIClientConfig provides settings for the marketplace REST API client.
type APIClientConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

// CacheConfig provides settings for the query cache.
type CacheConfig interface {
	GetCacheDriver() string
	GetCacheStaleAfter() time.Duration
	GetStatsRefreshInterval() time.Duration
	GetRedisURL() string
}

// MutationConfig provides settings for bulk fan-out.
type MutationConfig interface {
	GetBulkConcurrency() int
	GetBulkRatePerSecond() float64
}

// SessionConfig provides settings for desk sessions.
type SessionConfig interface {
	GetSessionIdleTimeout() time.Duration
	GetJWTVerifySecret() string
}

// ContactConfig provides settings for contact link formatting.
type ContactConfig interface {
	GetPhoneRegion() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerMinute() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RateLimitPerMinute   int
	APIBaseURL           string
	APIToken             string
	APITimeout           time.Duration
	CacheDriver          string
	CacheStaleAfter      time.Duration
	StatsRefreshInterval time.Duration
	RedisURL             string
	BulkConcurrency      int
	BulkRatePerSecond    float64
	SessionIdleTimeout   time.Duration
	JWTVerifySecret      string
	PhoneRegion          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// APIClientConfig implementation
func (c *Config) GetAPIBaseURL() string        { return c.APIBaseURL }
func (c *Config) GetAPITimeout() time.Duration { return c.APITimeout }

// CacheConfig implementation
func (c *Config) GetCacheDriver() string                 { return c.CacheDriver }
func (c *Config) GetCacheStaleAfter() time.Duration      { return c.CacheStaleAfter }
func (c *Config) GetStatsRefreshInterval() time.Duration { return c.StatsRefreshInterval }
func (c *Config) GetRedisURL() string                    { return c.RedisURL }

// MutationConfig implementation
func (c *Config) GetBulkConcurrency() int       { return c.BulkConcurrency }
func (c *Config) GetBulkRatePerSecond() float64 { return c.BulkRatePerSecond }

// SessionConfig implementation
func (c *Config) GetSessionIdleTimeout() time.Duration { return c.SessionIdleTimeout }
func (c *Config) GetJWTVerifySecret() string           { return c.JWTVerifySecret }

// ContactConfig implementation
func (c *Config) GetPhoneRegion() string { return c.PhoneRegion }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerMinute() int { return c.RateLimitPerMinute }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerMinute:   mustInt(getEnv("RATE_LIMIT_PER_MINUTE", "600")),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		APIToken:             getEnv("API_TOKEN", ""),
		APITimeout:           mustDuration(getEnv("API_TIMEOUT", "15s")),
		CacheDriver:          strings.ToLower(getEnv("CACHE_DRIVER", "memory")),
		CacheStaleAfter:      mustDuration(getEnv("CACHE_STALE_AFTER", "30s")),
		StatsRefreshInterval: mustDuration(getEnv("STATS_REFRESH_INTERVAL", "30s")),
		RedisURL:             getEnv("REDIS_URL", ""),
		BulkConcurrency:      mustInt(getEnv("BULK_CONCURRENCY", "4")),
		BulkRatePerSecond:    mustFloat(getEnv("BULK_RATE_PER_SECOND", "10")),
		SessionIdleTimeout:   mustDuration(getEnv("SESSION_IDLE_TIMEOUT", "8h")),
		JWTVerifySecret:      getEnv("JWT_VERIFY_SECRET", ""),
		PhoneRegion:          strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "ET")),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	switch cfg.CacheDriver {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when CACHE_DRIVER is redis")
		}
	default:
		return nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.CacheDriver)
	}
	if cfg.StatsRefreshInterval <= 0 {
		return nil, fmt.Errorf("STATS_REFRESH_INTERVAL must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
