package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "https://api.example.com/api/")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("STATS_REFRESH_INTERVAL", "30s")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, "memory", cfg.GetCacheDriver())
	assert.Equal(t, 30*time.Second, cfg.GetStatsRefreshInterval())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.GetCORSOrigins())
	assert.NotEmpty(t, cfg.GetPhoneRegion())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CACHE_DRIVER", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BULK_CONCURRENCY", "8")
	t.Setenv("BULK_RATE_PER_SECOND", "2.5")
	t.Setenv("SESSION_IDLE_TIMEOUT", "45m")
	t.Setenv("PHONE_DEFAULT_REGION", "ke")
	t.Setenv("CORS_ORIGINS", "https://desk.example.com, https://admin.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.CacheDriver)
	assert.Equal(t, 8, cfg.GetBulkConcurrency())
	assert.Equal(t, 2.5, cfg.GetBulkRatePerSecond())
	assert.Equal(t, 45*time.Minute, cfg.GetSessionIdleTimeout())
	assert.Equal(t, "KE", cfg.PhoneRegion)
	assert.Equal(t, []string{"https://desk.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"missing base url":    {"API_BASE_URL": ""},
		"redis without url":   {"CACHE_DRIVER": "redis", "REDIS_URL": ""},
		"unknown driver":      {"CACHE_DRIVER": "memcached"},
		"zero stats interval": {"STATS_REFRESH_INTERVAL": "0s"},
		"wildcard with creds": {"CORS_ORIGINS": "*", "CORS_ALLOW_CREDENTIALS": "true"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
