package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLiteStore implements the credential Store over a local SQLite file.
// This is the default store for single-host deployments; the schema mirrors
// PostgresStore, with uniqueness enforced on the normalized columns.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the SQLite database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, OpError{Op: "identity.OpenSQLiteStore", Kind: ErrInvalidInput, Msg: "empty path"}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent request handling.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// EnsureSchema creates the users table and unique indexes if absent.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			username               TEXT NOT NULL,
			username_norm          TEXT NOT NULL,
			email                  TEXT NOT NULL,
			email_norm             TEXT NOT NULL,
			password_hash          TEXT NOT NULL,
			reset_token            TEXT,
			reset_token_expires_at TIMESTAMP,
			created_at             TIMESTAMP NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email_norm ON users (email_norm);
		CREATE UNIQUE INDEX IF NOT EXISTS uq_users_username_norm ON users (username_norm);
	`)
	return err
}

// ResetSchema drops and recreates the users table. Destructive; only
// reachable when the reset flag is set at startup.
func (s *SQLiteStore) ResetSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS users`); err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}

const sqliteUserColumns = `id, username, email, password_hash, reset_token, reset_token_expires_at, created_at`

func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.SQLiteStore.FindByID"
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id,
	)
	return scanSQLiteUser(op, row)
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.SQLiteStore.FindByEmail"
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE email_norm = ?`,
		NormalizeEmail(email),
	)
	return scanSQLiteUser(op, row)
}

func (s *SQLiteStore) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.SQLiteStore.FindByUsername"
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE username_norm = ?`,
		NormalizeUsername(username),
	)
	return scanSQLiteUser(op, row)
}

func (s *SQLiteStore) Insert(ctx context.Context, in InsertInput) (User, error) {
	const op = "identity.SQLiteStore.Insert"

	if in.Email == "" || in.Username == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing fields"}
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, username_norm, email, email_norm, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		in.Username,
		NormalizeUsername(in.Username),
		NormalizeEmail(in.Email),
		NormalizeEmail(in.Email),
		in.PasswordHash,
		now,
	)
	if err != nil {
		if field, ok := sqliteClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
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

func (s *SQLiteStore) Update(ctx context.Context, u User) error {
	const op = "identity.SQLiteStore.Update"

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?,
		    username_norm = ?,
		    password_hash = ?,
		    reset_token = ?,
		    reset_token_expires_at = ?
		WHERE id = ?
	`,
		u.Username,
		NormalizeUsername(u.Username),
		u.PasswordHash,
		u.ResetToken,
		u.ResetTokenExpiresAt,
		u.ID,
	)
	if err != nil {
		if field, ok := sqliteClassifyUniqueViolation(err); ok {
			return ConflictError{Op: op, Field: field}
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

func scanSQLiteUser(op string, row *sql.Row) (User, error) {
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
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

func sqliteClassifyUniqueViolation(err error) (field string, ok bool) {
	if err == nil {
		return "", false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return "", false
	}
	switch {
	case strings.Contains(msg, "users.email_norm"):
		return "email", true
	case strings.Contains(msg, "users.username_norm"):
		return "username", true
	default:
		return "unique", true
	}
}
