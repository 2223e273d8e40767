// Package config loads the portal configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the portal configuration
type Config struct {
	Port string
	Env  string

	// BackendHost overrides every other way of locating the API.
	BackendHost string
	// APIUpstream is where same-origin /api traffic is forwarded.
	APIUpstream string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigins  []string
	CookieSecure bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Development reports whether APP_ENV=development was set. Only then is the
// request Host header trusted to locate the API.
func (c *Config) Development() bool {
	return c.Env == EnvDevelopment
}

// Load reads the configuration from environment variables. In production
// the upstream API address must be set explicitly. An unset APP_ENV is
// neither development nor production.
func Load() (*Config, error) {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == EnvProduction {
		if err := ValidateEnv([]string{"API_UPSTREAM"}); err != nil {
			return nil, err
		}
	}

	redisDB, err := strconv.Atoi(GetEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Port:          GetEnvOrDefault("PORTAL_PORT", "3000"),
		Env:           env,
		BackendHost:   os.Getenv("BACKEND_HOST"),
		APIUpstream:   GetEnvOrDefault("API_UPSTREAM", "http://localhost:8000"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		CORSOrigins:   splitList(GetEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),
		CookieSecure:  getEnvBool("COOKIE_SECURE", env == EnvProduction),
		ReadTimeout:   getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:  getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:   getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
	}

	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:5173"}
	}

	u, err := url.Parse(cfg.APIUpstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API_UPSTREAM %q: expected scheme://host[:port]", cfg.APIUpstream)
	}

	return cfg, nil
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
