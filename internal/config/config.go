package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries all runtime settings. Values come from the environment so
// the same binary runs locally (via .env) and in containers.
type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string

	// GuestCartTTL is how long a guest cart survives without activity
	// before the sweeper deletes it.
	GuestCartTTL time.Duration
	// SweepInterval controls how often expired guest carts are collected.
	SweepInterval time.Duration
	// MaxLineQuantity caps the quantity of a single cart line. Merges and
	// repeated adds clamp to this value instead of failing.
	MaxLineQuantity int
}

func Load() Config {
	return Config{
		Addr:            getenv("ZESTWARE_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		GuestCartTTL:    getenvDuration("GUEST_CART_TTL", 7*24*time.Hour),
		SweepInterval:   getenvDuration("GUEST_CART_SWEEP_INTERVAL", time.Hour),
		MaxLineQuantity: getenvInt("MAX_LINE_QUANTITY", 20),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
