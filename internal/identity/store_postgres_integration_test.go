package identity

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are opt-in and require ROUNDTABLE_TEST_DATABASE_URL.
// Each test runs in its own throwaway schema so parallel CI jobs do not
// interfere.

func mustOpenTestStore(t *testing.T) (*PostgresStore, *pgxpool.Pool) {
	t.Helper()

	url := os.Getenv("ROUNDTABLE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("ROUNDTABLE_TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	schema := fmt.Sprintf("roundtable_test_%d", rand.New(rand.NewSource(time.Now().UnixNano())).Intn(1_000_000))

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	admin, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		t.Fatalf("create schema: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		admin.Close()
		t.Fatalf("open pool: %v", err)
	}

	t.Cleanup(func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		pool.Close()
		_, _ = admin.Exec(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		admin.Close()
	})

	st, err := NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return st, pool
}

func TestPostgresStore_InsertConflictsAndUpdate(t *testing.T) {
	st, _ := mustOpenTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := st.Insert(ctx, InsertInput{
		Email:        "Tarnished@Roundtable.hold",
		Username:     "Tarnished",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if u.ID == 0 || u.Email != "tarnished@roundtable.hold" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// Case-insensitive duplicates resolve at the unique indexes.
	_, err = st.Insert(ctx, InsertInput{Email: "TARNISHED@roundtable.hold", Username: "other", PasswordHash: "h"})
	if !IsConflict(err) || ConflictField(err) != "email" {
		t.Fatalf("expected email conflict, got %v", err)
	}
	_, err = st.Insert(ctx, InsertInput{Email: "x@y.com", Username: "tarnished", PasswordHash: "h"})
	if !IsConflict(err) || ConflictField(err) != "username" {
		t.Fatalf("expected username conflict, got %v", err)
	}

	// Round-trip a reset token through Update.
	tok := "reset-token"
	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	u.ResetToken = &tok
	u.ResetTokenExpiresAt = &exp
	if err := st.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := st.FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.ResetToken == nil || *got.ResetToken != tok {
		t.Fatalf("reset token not persisted")
	}
	if got.ResetTokenExpiresAt == nil || !got.ResetTokenExpiresAt.Equal(exp) {
		t.Fatalf("reset expiry mismatch: %v", got.ResetTokenExpiresAt)
	}

	if err := st.Update(ctx, User{ID: 99999, Username: "ghost", PasswordHash: "h"}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
