package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// DatabaseURL selects the credential store:
	//   - empty: in-memory store (development only)
	//   - postgres:// or postgresql://: PostgreSQL via pgx
	//   - anything else: SQLite database file path
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// ResetDB permits a destructive schema reset at startup.
	// Defaults to off; never enable in production.
	ResetDB bool

	// GeminiAPIKey enables the AI chat proxy when set.
	GeminiAPIKey string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("ROUNDTABLE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("ROUNDTABLE_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("ROUNDTABLE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("ROUNDTABLE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("ROUNDTABLE_HTTP_WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       EnvDuration("ROUNDTABLE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("ROUNDTABLE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("ROUNDTABLE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("ROUNDTABLE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("ROUNDTABLE_DB_MIN_CONNS", 0),

		ResetDB: EnvBool("ROUNDTABLE_RESET_DB", false),

		// GOOGLE_API_KEY is the upstream provider's conventional name.
		GeminiAPIKey: EnvString("ROUNDTABLE_GEMINI_API_KEY", EnvString("GOOGLE_API_KEY", "")),
	}
}
