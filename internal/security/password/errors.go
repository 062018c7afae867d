package password

import "errors"

var (
	// ErrInvalidHash reports a malformed or unsupported PHC hash string.
	ErrInvalidHash = errors.New("invalid argon2id hash")
	// ErrEmptyPassword reports an empty plaintext input.
	ErrEmptyPassword = errors.New("empty password")
)
