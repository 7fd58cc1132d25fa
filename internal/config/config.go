package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the binaries read from the environment. All
// variables use the FASTAUTH_ prefix.
type Config struct {
	Addr          string        // FASTAUTH_ADDR, listen address
	PGDSN         string        // FASTAUTH_PG_DSN, empty means in-memory store
	SecretKey     string        // FASTAUTH_SECRET_KEY, reserved; tokens are random, not signed
	TokenLifetime time.Duration // FASTAUTH_TOKEN_LIFETIME_MINUTES
	RateBurst     int           // FASTAUTH_RATE_BURST
	RatePerSec    int           // FASTAUTH_RATE_PER_SECOND
	MaxBodyBytes  int64         // FASTAUTH_MAX_BODY_BYTES
}

// Load reads the environment, filling defaults for anything unset.
func Load() Config {
	return Config{
		Addr:          envString("FASTAUTH_ADDR", ":8080"),
		PGDSN:         os.Getenv("FASTAUTH_PG_DSN"),
		SecretKey:     os.Getenv("FASTAUTH_SECRET_KEY"),
		TokenLifetime: time.Duration(envInt("FASTAUTH_TOKEN_LIFETIME_MINUTES", 480)) * time.Minute,
		RateBurst:     envInt("FASTAUTH_RATE_BURST", 20),
		RatePerSec:    envInt("FASTAUTH_RATE_PER_SECOND", 10),
		MaxBodyBytes:  int64(envInt("FASTAUTH_MAX_BODY_BYTES", 1<<20)),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
