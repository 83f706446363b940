// Package config loads process configuration from the environment once at
// startup. The resulting struct is passed explicitly to constructors and is
// immutable for the process lifetime.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	envAddr       = "OPSBOARD_ADDR"
	envAuthSecret = "OPSBOARD_AUTH_SECRET"
	envIssuer     = "OPSBOARD_ISSUER"
	envAccessTTL  = "OPSBOARD_ACCESS_TTL"
	envRefreshTTL = "OPSBOARD_REFRESH_TTL"
	envPGDSN      = "OPSBOARD_PG_DSN"
	envRedisAddr  = "OPSBOARD_REDIS_ADDR"
)

// Config holds everything the process needs at startup.
type Config struct {
	Addr       string
	AuthSecret string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PGDSN      string
	RedisAddr  string
}

// FromEnv reads configuration from OPSBOARD_* environment variables.
// The signing secret is mandatory; everything else has a default.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:       ":8080",
		Issuer:     "opsboard",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
	}
	if v := strings.TrimSpace(os.Getenv(envAddr)); v != "" {
		cfg.Addr = v
	}
	cfg.AuthSecret = strings.TrimSpace(os.Getenv(envAuthSecret))
	if cfg.AuthSecret == "" {
		return Config{}, errors.New(envAuthSecret + " is required")
	}
	if v := strings.TrimSpace(os.Getenv(envIssuer)); v != "" {
		cfg.Issuer = v
	}
	var err error
	if cfg.AccessTTL, err = durationEnv(envAccessTTL, cfg.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = durationEnv(envRefreshTTL, cfg.RefreshTTL); err != nil {
		return Config{}, err
	}
	cfg.PGDSN = strings.TrimSpace(os.Getenv(envPGDSN))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv(envRedisAddr))
	return cfg, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}
