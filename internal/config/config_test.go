package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "production") // skip .env files

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.API.MaxConnectAttempts)
	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("API_TIMEOUT", "30s")
	t.Setenv("API_MAX_CONNECT_ATTEMPTS", "3")
	t.Setenv("CACHE_PROVIDER", "redis")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxConnectAttempts)
	assert.Equal(t, "redis", cfg.Cache.Provider)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("API_TIMEOUT", "not-a-duration")
	t.Setenv("API_MAX_CONNECT_ATTEMPTS", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.API.MaxConnectAttempts)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API: APIConfig{
				BaseURL: "http://localhost:9000/api",
				Timeout: 15 * time.Second,
			},
			Cache: CacheConfig{Provider: "memory", TTL: time.Minute},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base URL", func(c *Config) { c.API.BaseURL = "" }},
		{"relative base URL", func(c *Config) { c.API.BaseURL = "/api" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"unknown cache provider", func(c *Config) { c.Cache.Provider = "memcached" }},
		{"zero cache TTL", func(c *Config) { c.Cache.TTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
