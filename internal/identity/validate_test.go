package identity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{name: "valid", in: "tarnished@roundtable.hold", want: "tarnished@roundtable.hold"},
		{name: "normalized", in: "  Melina@Example.COM ", want: "melina@example.com"},
		{name: "empty", in: "   ", wantErr: "Email is required"},
		{name: "no_at", in: "not-an-email", wantErr: "Invalid email format"},
		{name: "no_tld", in: "user@host", wantErr: "Invalid email format"},
		{name: "too_long", in: strings.Repeat("a", 95) + "@ex.com", wantErr: "Email must be at most 100 characters long"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateEmail(tc.in)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.wantErr)
				}
				var ve ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if ve.Reason != tc.wantErr {
					t.Fatalf("reason=%q want %q", ve.Reason, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{name: "valid", in: "Radahn_77", want: "Radahn_77"},
		{name: "trimmed", in: "  ranni  ", want: "ranni"},
		{name: "empty", in: "", wantErr: "Username is required"},
		{name: "too_short", in: "ab", wantErr: "Username must be between 3 and 50 characters long"},
		{name: "too_long", in: strings.Repeat("x", 51), wantErr: "Username must be between 3 and 50 characters long"},
		{name: "bad_chars", in: "bad name!", wantErr: "Username may only contain letters, digits, and underscores"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateUsername(tc.in)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.wantErr)
				}
				var ve ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("expected ValidationError, got %T", err)
				}
				if ve.Reason != tc.wantErr {
					t.Fatalf("reason=%q want %q", ve.Reason, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestValidatePassword_OrderOfChecks(t *testing.T) {
	// A password failing several rules must report the first failing rule
	// in the fixed order: length, uppercase, lowercase, digit, special.
	cases := []struct {
		name    string
		in      string
		wantErr string
	}{
		{name: "too_short", in: "Ab1!", wantErr: "Password must be at least 10 characters long"},
		{name: "too_long", in: strings.Repeat("Aa1!", 40), wantErr: "Password must be at most 128 characters long"},
		{name: "no_upper", in: "alllower1!x", wantErr: "Password must contain at least one uppercase letter"},
		{name: "no_lower", in: "ALLUPPER1!X", wantErr: "Password must contain at least one lowercase letter"},
		{name: "no_digit", in: "NoDigitsHere!", wantErr: "Password must contain at least one digit"},
		{name: "no_special", in: "NoSpecial123x", wantErr: "Password must contain at least one special character"},
		{name: "short_beats_charset", in: "abc", wantErr: "Password must be at least 10 characters long"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.in)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tc.wantErr)
			}
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if ve.Reason != tc.wantErr {
				t.Fatalf("reason=%q want %q", ve.Reason, tc.wantErr)
			}
		})
	}
}

func TestValidatePassword_Valid(t *testing.T) {
	for _, p := range []string{
		"GoldenOrder1!",
		`Elden"Ring"2022`,
		"aB3???????????",
	} {
		if err := ValidatePassword(p); err != nil {
			t.Fatalf("ValidatePassword(%q): %v", p, err)
		}
	}
}
