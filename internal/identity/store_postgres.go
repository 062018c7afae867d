package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the credential Store over PostgreSQL.
//
// Design notes:
//   - The pgx pool is owned by the caller; this store must NOT close it.
//   - Uniqueness on email and username is enforced by unique indexes on the
//     normalized columns, so concurrent duplicate inserts resolve in the
//     database, never in application code.
//   - Unique violations are classified into ConflictError by constraint name.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the users table and unique indexes if absent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                     BIGSERIAL PRIMARY KEY,
			username               TEXT NOT NULL,
			username_norm          TEXT NOT NULL,
			email                  TEXT NOT NULL,
			email_norm             TEXT NOT NULL,
			password_hash          TEXT NOT NULL,
			reset_token            TEXT,
			reset_token_expires_at TIMESTAMPTZ,
			created_at             TIMESTAMPTZ NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email_norm ON users (email_norm);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_users_username_norm ON users (username_norm);
	`)
	return err
}

// ResetSchema drops and recreates the users table. Destructive; only
// reachable when the reset flag is set at startup.
func (s *PostgresStore) ResetSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS users`); err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}

const pgUserColumns = `id, username, email, password_hash, reset_token, reset_token_expires_at, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.PostgresStore.FindByID"
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgUserColumns+` FROM users WHERE id = $1`, id,
	)
	return scanPgUser(op, row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.PostgresStore.FindByEmail"
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgUserColumns+` FROM users WHERE email_norm = $1`,
		NormalizeEmail(email),
	)
	return scanPgUser(op, row)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.PostgresStore.FindByUsername"
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgUserColumns+` FROM users WHERE username_norm = $1`,
		NormalizeUsername(username),
	)
	return scanPgUser(op, row)
}

func (s *PostgresStore) Insert(ctx context.Context, in InsertInput) (User, error) {
	const op = "identity.PostgresStore.Insert"

	if in.Email == "" || in.Username == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing fields"}
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, username_norm, email, email_norm, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		in.Username,
		NormalizeUsername(in.Username),
		NormalizeEmail(in.Email),
		NormalizeEmail(in.Email),
		in.PasswordHash,
		now,
	).Scan(&id)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	return User{
		ID:           id,
		Username:     in.Username,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}, nil
}

func (s *PostgresStore) Update(ctx context.Context, u User) error {
	const op = "identity.PostgresStore.Update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET username = $2,
		    username_norm = $3,
		    password_hash = $4,
		    reset_token = $5,
		    reset_token_expires_at = $6
		WHERE id = $1
	`,
		u.ID,
		u.Username,
		NormalizeUsername(u.Username),
		u.PasswordHash,
		u.ResetToken,
		u.ResetTokenExpiresAt,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

type pgRow interface {
	Scan(dest ...any) error
}

func scanPgUser(op string, row pgRow) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.ResetToken,
		&u.ResetTokenExpiresAt,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return "", false
	}

	// Prefer stable constraint names; fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	switch c {
	case "uq_users_email_norm":
		return "email", true
	case "uq_users_username_norm":
		return "username", true
	default:
		switch {
		case strings.Contains(c, "email"):
			return "email", true
		case strings.Contains(c, "username"):
			return "username", true
		default:
			return "unique", true
		}
	}
}
