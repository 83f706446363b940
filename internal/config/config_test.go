package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{envAddr, envAuthSecret, envIssuer, envAccessTTL, envRefreshTTL, envPGDSN, envRedisAddr} {
		t.Setenv(name, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAuthSecret, "topsecret")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.Issuer != "opsboard" {
		t.Fatalf("unexpected issuer: %q", cfg.Issuer)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 14*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %v", cfg.RefreshTTL)
	}
	if cfg.AuthSecret != "topsecret" {
		t.Fatalf("unexpected secret: %q", cfg.AuthSecret)
	}
}

func TestFromEnvRequiresSecret(t *testing.T) {
	clearEnv(t)
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without signing secret")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAuthSecret, "s")
	t.Setenv(envAddr, "127.0.0.1:9000")
	t.Setenv(envIssuer, "opsboard-stage")
	t.Setenv(envAccessTTL, "5m")
	t.Setenv(envRefreshTTL, "72h")
	t.Setenv(envPGDSN, "postgres://u:p@localhost/opsboard")
	t.Setenv(envRedisAddr, "localhost:6379")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9000" || cfg.Issuer != "opsboard-stage" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.AccessTTL != 5*time.Minute || cfg.RefreshTTL != 72*time.Hour {
		t.Fatalf("duration overrides not applied: %+v", cfg)
	}
	if cfg.PGDSN == "" || cfg.RedisAddr == "" {
		t.Fatalf("backend addresses not applied: %+v", cfg)
	}
}

func TestFromEnvRejectsBadDurations(t *testing.T) {
	clearEnv(t)
	t.Setenv(envAuthSecret, "s")

	t.Setenv(envAccessTTL, "soon")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected parse error for malformed duration")
	}

	t.Setenv(envAccessTTL, "-5m")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for non-positive duration")
	}
}
