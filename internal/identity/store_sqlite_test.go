package identity

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "roundtable.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return st
}

func TestSQLiteStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteTestStore(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u, err := st.Insert(ctx, InsertInput{
		Email:        "Tarnished@Roundtable.hold",
		Username:     "Tarnished",
		PasswordHash: "hash",
		Now:          created,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if u.Email != "tarnished@roundtable.hold" {
		t.Fatalf("email not normalized: %q", u.Email)
	}

	got, err := st.FindByEmail(ctx, "TARNISHED@roundtable.hold")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.ID != u.ID || got.Username != "Tarnished" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at=%v want %v", got.CreatedAt, created)
	}

	if _, err := st.FindByUsername(ctx, "tarnished"); err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if _, err := st.FindByID(ctx, u.ID); err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if _, err := st.FindByID(ctx, 999); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSQLiteStore_UniqueViolations(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteTestStore(t)

	if _, err := st.Insert(ctx, InsertInput{Email: "a@b.com", Username: "alpha", PasswordHash: "h"}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	_, err := st.Insert(ctx, InsertInput{Email: "A@B.com", Username: "beta", PasswordHash: "h"})
	if !IsConflict(err) || ConflictField(err) != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}

	_, err = st.Insert(ctx, InsertInput{Email: "c@d.com", Username: "ALPHA", PasswordHash: "h"})
	if !IsConflict(err) || ConflictField(err) != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestSQLiteStore_UpdateAndResetToken(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteTestStore(t)

	u, err := st.Insert(ctx, InsertInput{Email: "a@b.com", Username: "alpha", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tok := "reset-token"
	exp := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	u.Username = "alpha_two"
	u.PasswordHash = "h2"
	u.ResetToken = &tok
	u.ResetTokenExpiresAt = &exp
	if err := st.Update(ctx, u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := st.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Username != "alpha_two" || got.PasswordHash != "h2" {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.ResetToken == nil || *got.ResetToken != tok {
		t.Fatalf("reset token not persisted")
	}
	if got.ResetTokenExpiresAt == nil || !got.ResetTokenExpiresAt.Equal(exp) {
		t.Fatalf("reset expiry not persisted: %v", got.ResetTokenExpiresAt)
	}

	// Clearing the token persists NULLs.
	got.ResetToken = nil
	got.ResetTokenExpiresAt = nil
	if err := st.Update(ctx, got); err != nil {
		t.Fatalf("Update clear: %v", err)
	}
	got, err = st.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.ResetToken != nil || got.ResetTokenExpiresAt != nil {
		t.Fatalf("reset token not cleared: %+v", got)
	}

	// Updating a missing row reports not found.
	missing := User{ID: 12345, Username: "ghost", PasswordHash: "h"}
	if err := st.Update(ctx, missing); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSQLiteStore_ResetSchema(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteTestStore(t)

	if _, err := st.Insert(ctx, InsertInput{Email: "a@b.com", Username: "alpha", PasswordHash: "h"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := st.ResetSchema(ctx); err != nil {
		t.Fatalf("ResetSchema: %v", err)
	}
	if _, err := st.FindByEmail(ctx, "a@b.com"); !IsNotFound(err) {
		t.Fatalf("expected empty store after reset, got %v", err)
	}
}

func TestOpenSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := OpenSQLiteStore("  "); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
