package session

import (
	"net/http"
	"os"
	"time"

	"roundtable/internal/security/token"
)

// Config defines runtime configuration for the session subsystem.
//
// It is intentionally explicit and environment-driven so that production
// deployments can tune security parameters without code changes.
type Config struct {
	// CookieName is the session cookie name.
	CookieName string

	// TTL defines the session lifetime.
	TTL time.Duration

	// CookieSecure marks the cookie Secure (HTTPS-only). Disable only for
	// local development.
	CookieSecure bool

	CookiePath     string
	CookieSameSite http.SameSite
}

// DefaultConfig returns a secure default configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:     "roundtable_session",
		TTL:            24 * time.Hour,
		CookieSecure:   true,
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - ROUNDTABLE_SESSION_SECRET (min 32 bytes; read by NewManager)
//
// Optional:
//   - ROUNDTABLE_SESSION_COOKIE_NAME
//   - ROUNDTABLE_SESSION_TTL (Go duration string)
//   - ROUNDTABLE_SESSION_COOKIE_SECURE (true/false)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("ROUNDTABLE_SESSION_COOKIE_NAME"); v != "" {
		cfg.CookieName = v
	}
	if v := os.Getenv("ROUNDTABLE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}
	if v := os.Getenv("ROUNDTABLE_SESSION_COOKIE_SECURE"); v != "" {
		cfg.CookieSecure = v != "false" && v != "0"
	}

	return cfg, nil
}

// SigningKeyFromEnv returns the session signing secret, enforcing the
// 32-byte minimum. There is deliberately no default: a hardcoded or absent
// secret must fail startup, never fall back.
func SigningKeyFromEnv() ([]byte, error) {
	return token.SigningKeyFromEnv(32)
}
