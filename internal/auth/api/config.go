package api

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and rate-limit policy.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	// Sliding-window limits, keyed per action + client IP.
	LoginMax       int
	LoginWindow    time.Duration
	RegisterMax    int
	RegisterWindow time.Duration
	ResetMax       int
	ResetWindow    time.Duration
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:     envBool("ROUNDTABLE_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("ROUNDTABLE_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
		LoginMax:       envInt("ROUNDTABLE_AUTH_LOGIN_MAX", 5),
		LoginWindow:    envDuration("ROUNDTABLE_AUTH_LOGIN_WINDOW", 15*time.Minute),
		RegisterMax:    envInt("ROUNDTABLE_AUTH_REGISTER_MAX", 5),
		RegisterWindow: envDuration("ROUNDTABLE_AUTH_REGISTER_WINDOW", 15*time.Minute),
		ResetMax:       envInt("ROUNDTABLE_AUTH_RESET_MAX", 5),
		ResetWindow:    envDuration("ROUNDTABLE_AUTH_RESET_WINDOW", 15*time.Minute),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
