package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"FASTAUTH_ADDR", "FASTAUTH_PG_DSN", "FASTAUTH_SECRET_KEY",
		"FASTAUTH_TOKEN_LIFETIME_MINUTES",
		"FASTAUTH_RATE_BURST", "FASTAUTH_RATE_PER_SECOND", "FASTAUTH_MAX_BODY_BYTES",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.PGDSN != "" {
		t.Fatalf("dsn = %q", cfg.PGDSN)
	}
	if cfg.SecretKey != "" {
		t.Fatalf("secret = %q", cfg.SecretKey)
	}
	if cfg.TokenLifetime != 480*time.Minute {
		t.Fatalf("token lifetime = %v", cfg.TokenLifetime)
	}
	if cfg.RateBurst != 20 || cfg.RatePerSec != 10 {
		t.Fatalf("rate = %d/%d", cfg.RateBurst, cfg.RatePerSec)
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("max body = %d", cfg.MaxBodyBytes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FASTAUTH_ADDR", ":9999")
	t.Setenv("FASTAUTH_PG_DSN", "postgres://localhost/fastauth")
	t.Setenv("FASTAUTH_SECRET_KEY", "reserved-value")
	t.Setenv("FASTAUTH_TOKEN_LIFETIME_MINUTES", "60")
	t.Setenv("FASTAUTH_RATE_BURST", "5")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.PGDSN != "postgres://localhost/fastauth" {
		t.Fatalf("dsn = %q", cfg.PGDSN)
	}
	if cfg.SecretKey != "reserved-value" {
		t.Fatalf("secret = %q", cfg.SecretKey)
	}
	if cfg.TokenLifetime != time.Hour {
		t.Fatalf("token lifetime = %v", cfg.TokenLifetime)
	}
	if cfg.RateBurst != 5 {
		t.Fatalf("burst = %d", cfg.RateBurst)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("FASTAUTH_TOKEN_LIFETIME_MINUTES", "not-a-number")
	t.Setenv("FASTAUTH_RATE_BURST", "-3")

	cfg := Load()
	if cfg.TokenLifetime != 480*time.Minute {
		t.Fatalf("token lifetime = %v", cfg.TokenLifetime)
	}
	if cfg.RateBurst != 20 {
		t.Fatalf("burst = %d", cfg.RateBurst)
	}
}
