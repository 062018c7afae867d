package token

import "errors"

var (
	// ErrSecretMissing indicates ROUNDTABLE_SESSION_SECRET is not set.
	ErrSecretMissing = errors.New("session secret missing")
	// ErrSecretTooShort indicates the secret is below the minimum byte length.
	ErrSecretTooShort = errors.New("session secret too short")
)
