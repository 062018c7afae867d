package session

import "errors"

var (
	// ErrConfig reports invalid session configuration.
	ErrConfig = errors.New("invalid session config")
	// ErrInvalidToken reports a malformed or tampered session token.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrTokenExpired reports a structurally valid but expired token.
	ErrTokenExpired = errors.New("session token expired")
)
