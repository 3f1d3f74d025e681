package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	API     APIConfig
	Cache   CacheConfig
	Logging LoggingConfig
}

// APIConfig holds REST collaborator configuration
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// Startup connectivity probe only; mutations are never retried.
	MaxConnectAttempts int
}

// CacheConfig holds thread cache configuration
type CacheConfig struct {
	Provider      string // "memory", "redis"
	TTL           time.Duration
	MaxKeys       int
	RedisURL      string
	RedisDB       int
	RedisPassword string
	PoolSize      int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load builds configuration from the environment, reading a .env file for
// non-production environments the way the rest of the tooling does.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load() // fallback to .env
		}
	}

	config := &Config{
		API: APIConfig{
			BaseURL:            getEnv("API_BASE_URL", "http://localhost:9000/api"),
			Token:              getEnv("API_TOKEN", ""),
			Timeout:            getDurationEnv("API_TIMEOUT", 15*time.Second),
			MaxConnectAttempts: getIntEnv("API_MAX_CONNECT_ATTEMPTS", 5),
		},
		Cache: CacheConfig{
			Provider:      getEnv("CACHE_PROVIDER", "memory"),
			TTL:           getDurationEnv("CACHE_TTL", 5*time.Minute),
			MaxKeys:       getIntEnv("CACHE_MAX_KEYS", 1000),
			RedisURL:      getEnv("REDIS_URL", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			PoolSize:      getIntEnv("REDIS_POOL_SIZE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
			Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	switch c.Cache.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_PROVIDER must be 'memory' or 'redis', got %q", c.Cache.Provider)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	switch env {
	case "production":
		return "json"
	default:
		return "console"
	}
}
