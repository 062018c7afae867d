package identity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxEmailLen    = 100
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 10
	maxPasswordLen = 128

	passwordSpecials = `!@#$%^&*(),.?_":{}|<>`
)

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// NormalizeEmail canonicalizes an email for uniqueness checks and lookups:
// trim plus lower-case, the same form the stores index.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeUsername canonicalizes a username the same way. Display casing
// is preserved on the User record; only uniqueness is case-insensitive.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail trims, lowercases, and checks format and length.
// It returns the normalized email on success.
func ValidateEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if email == "" {
		return "", ValidationError{Field: "email", Reason: "Email is required"}
	}
	if len(email) > maxEmailLen {
		return "", ValidationError{Field: "email", Reason: "Email must be at most 100 characters long"}
	}
	if !emailRe.MatchString(email) {
		return "", ValidationError{Field: "email", Reason: "Invalid email format"}
	}
	return email, nil
}

// ValidateUsername trims and checks length and character set.
// It returns the trimmed username on success (case is preserved; the store
// normalizes separately for uniqueness).
func ValidateUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if username == "" {
		return "", ValidationError{Field: "username", Reason: "Username is required"}
	}
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return "", ValidationError{Field: "username", Reason: "Username must be between 3 and 50 characters long"}
	}
	if !usernameRe.MatchString(username) {
		return "", ValidationError{Field: "username", Reason: "Username may only contain letters, digits, and underscores"}
	}
	return username, nil
}

// ValidatePassword enforces the password policy. Checks run in a fixed
// order and the first failure wins: length-low, length-high, uppercase,
// lowercase, digit, special character.
func ValidatePassword(raw string) error {
	n := utf8.RuneCountInString(raw)
	if n < minPasswordLen {
		return ValidationError{Field: "password", Reason: "Password must be at least 10 characters long"}
	}
	if n > maxPasswordLen {
		return ValidationError{Field: "password", Reason: "Password must be at most 128 characters long"}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return ValidationError{Field: "password", Reason: "Password must contain at least one uppercase letter"}
	case !hasLower:
		return ValidationError{Field: "password", Reason: "Password must contain at least one lowercase letter"}
	case !hasDigit:
		return ValidationError{Field: "password", Reason: "Password must contain at least one digit"}
	case !hasSpecial:
		return ValidationError{Field: "password", Reason: "Password must contain at least one special character"}
	}
	return nil
}
