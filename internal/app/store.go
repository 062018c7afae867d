package app

import (
	"context"
	"strings"

	"roundtable/internal/identity"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaManager is implemented by the DB-backed identity stores.
type schemaManager interface {
	EnsureSchema(ctx context.Context) error
	ResetSchema(ctx context.Context) error
}

// storeCloser releases resources owned by the selected store.
type storeCloser interface {
	Close(ctx context.Context) error
}

type nopCloser struct{}

func (nopCloser) Close(_ context.Context) error { return nil }

type pgCloser struct {
	pool *pgxpool.Pool
}

func (c pgCloser) Close(_ context.Context) error {
	if c.pool != nil {
		c.pool.Close()
	}
	return nil
}

type sqliteCloser struct {
	store *identity.SQLiteStore
}

func (c sqliteCloser) Close(_ context.Context) error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// newIdentityStore picks the credential store based on DatabaseURL:
// empty for in-memory, postgres URLs for pgx, anything else is treated
// as a SQLite file path.
func newIdentityStore(ctx context.Context, cfg Config, log Logger) (identity.Store, storeCloser, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("store.inmemory", "note", "users are lost on restart")
		return identity.NewMemoryStore(), nopCloser{}, nil, nil
	}

	if strings.HasPrefix(cfg.DatabaseURL, "postgres://") || strings.HasPrefix(cfg.DatabaseURL, "postgresql://") {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}

		st, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		if err := prepareSchema(ctx, st, cfg, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		log.Info("store.postgres")
		return st, pgCloser{pool: pool}, pool, nil
	}

	st, err := identity.OpenSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := prepareSchema(ctx, st, cfg, log); err != nil {
		_ = st.Close()
		return nil, nil, nil, err
	}

	log.Info("store.sqlite", "path", cfg.DatabaseURL)
	return st, sqliteCloser{store: st}, nil, nil
}

func prepareSchema(ctx context.Context, sm schemaManager, cfg Config, log Logger) error {
	if cfg.ResetDB {
		log.Warn("store.schema.reset")
		if err := sm.ResetSchema(ctx); err != nil {
			return err
		}
	}
	return sm.EnsureSchema(ctx)
}
