// Package password provides Argon2id password hashing in PHC string format.
//
// Credential strength policy (length, character classes) lives in the
// identity validator; this package only hashes and verifies.
package password
