package identity

import "time"

// User is Roundtable's canonical security principal.
// PasswordHash is a PHC-encoded Argon2id string; the plaintext password is
// never stored and must never appear in logs or responses.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string

	// Password-reset state. Both are nil until a reset is requested.
	ResetToken          *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
}

// InsertInput describes a registration insert. Username and Email must
// already be validated; the store normalizes them for uniqueness checks.
type InsertInput struct {
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}
