// Package app wires the Roundtable server runtime: config, logging,
// persistence selection, HTTP routes, and graceful shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"roundtable/internal/auth/api"
	"roundtable/internal/auth/session"
	"roundtable/internal/chat"
	"roundtable/internal/web"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App is the Roundtable server runtime.
type App struct {
	cfg Config
	log Logger

	closer storeCloser
	dbPool *pgxpool.Pool

	sessions *session.Manager
	auth     *api.Handler
	pages    *web.Pages
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	key, err := session.SigningKeyFromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(sessCfg, key)
	if err != nil {
		return nil, err
	}

	store, closer, dbPool, err := newIdentityStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	var authOpts []api.Option
	if cfg.GeminiAPIKey != "" {
		client, err := chat.NewClient(cfg.GeminiAPIKey)
		if err != nil {
			_ = closer.Close(context.Background())
			return nil, err
		}
		authOpts = append(authOpts, api.WithChatService(client))
		log.Info("chat.enabled")
	} else {
		log.Warn("chat.disabled", "reason", "no api key configured")
	}

	authHandler, err := api.NewHandler(log, store, sessions, api.LoadConfigFromEnv(), authOpts...)
	if err != nil {
		_ = closer.Close(context.Background())
		return nil, err
	}

	pages, err := web.NewPages(log)
	if err != nil {
		_ = closer.Close(context.Background())
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		closer:   closer,
		dbPool:   dbPool,
		sessions: sessions,
		auth:     authHandler,
		pages:    pages,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.dbPool, a.auth, a.pages)

	handler := a.sessions.Attach(mux)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 60*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.cfg.DatabaseURL != "")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
