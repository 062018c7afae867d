// Package token provides HMAC signing primitives for session tokens.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"os"
	"strings"
)

// SecretEnvKey is the env var name for the session signing secret.
// #nosec G101 -- not a credential; it's an environment variable name.
const SecretEnvKey = "ROUNDTABLE_SESSION_SECRET"

// SignHMACSHA256 returns the raw HMAC-SHA256 of msg using key.
func SignHMACSHA256(msg string, key []byte) []byte {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(msg))
	return m.Sum(nil)
}

// ConstantTimeEqual compares two byte slices without leaking a timing
// difference correlated with the length of the matching prefix.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// SigningKeyFromEnv returns the configured signing secret bytes (trimmed),
// enforcing a minimum byte length.
// If the env var is missing/blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func SigningKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(SecretEnvKey))
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}
