// Package config loads runtime settings: development defaults, an
// optional .env overlay, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the auction server.
//
//   - Addr: HTTP bind address.
//   - DatabaseDSN: PostgreSQL DSN (pgx); empty selects the in-memory store.
//   - SessionSecret: HMAC secret the identity provider signs session tokens with.
//   - SweepInterval: how often the lifecycle sweeper runs.
//   - FeaturedLimit: how many auctions the featured listing returns.
type Config struct {
	Addr          string
	DatabaseDSN   string
	SessionSecret string
	SweepInterval time.Duration
	FeaturedLimit int
}

// LoadDefaults populates Config with development defaults.
// NOTE: the session secret is insecure and must be overridden in prod.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabaseDSN = ""
	c.SessionSecret = "dev-session-secret"
	c.SweepInterval = 15 * time.Minute
	c.FeaturedLimit = 8
}

// Load builds a Config from defaults, an optional .env file, and
// environment variables.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()

	// Missing .env is fine; env vars still apply.
	_ = godotenv.Load()

	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = fmt.Sprintf(":%s", v)
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SweepInterval = d
		}
	}
	if v := os.Getenv("FEATURED_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FeaturedLimit = n
		}
	}
	return cfg
}
