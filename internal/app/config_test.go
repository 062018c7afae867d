package app

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ROUNDTABLE_HTTP_ADDR", "")
	t.Setenv("ROUNDTABLE_DATABASE_URL", "")
	t.Setenv("ROUNDTABLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "0.0.0.0:8080" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel=%q", cfg.LogLevel)
	}
	if cfg.DatabaseURL != "" || cfg.ResetDB {
		t.Fatalf("unexpected db config: %+v", cfg)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey=%q", cfg.GeminiAPIKey)
	}
	if cfg.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("ReadHeaderTimeout=%v", cfg.ReadHeaderTimeout)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ROUNDTABLE_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("ROUNDTABLE_LOG_LEVEL", "debug")
	t.Setenv("ROUNDTABLE_DATABASE_URL", "postgres://localhost/roundtable")
	t.Setenv("ROUNDTABLE_DB_MAX_CONNS", "25")
	t.Setenv("ROUNDTABLE_RESET_DB", "true")
	t.Setenv("ROUNDTABLE_HTTP_READ_TIMEOUT", "30s")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q", cfg.LogLevel)
	}
	if cfg.DatabaseURL != "postgres://localhost/roundtable" {
		t.Fatalf("DatabaseURL=%q", cfg.DatabaseURL)
	}
	if cfg.DBMaxConns != 25 {
		t.Fatalf("DBMaxConns=%d", cfg.DBMaxConns)
	}
	if !cfg.ResetDB {
		t.Fatalf("expected ResetDB")
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Fatalf("ReadTimeout=%v", cfg.ReadTimeout)
	}
}

func TestLoadConfig_GeminiKeyFallback(t *testing.T) {
	t.Setenv("ROUNDTABLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "from-google")

	if got := LoadConfig().GeminiAPIKey; got != "from-google" {
		t.Fatalf("GeminiAPIKey=%q", got)
	}

	t.Setenv("ROUNDTABLE_GEMINI_API_KEY", "explicit")
	if got := LoadConfig().GeminiAPIKey; got != "explicit" {
		t.Fatalf("GeminiAPIKey=%q", got)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "  hello  ")
	if got := EnvString("X_STR", "def"); got != "hello" {
		t.Fatalf("EnvString=%q", got)
	}
	if got := EnvString("X_MISSING", "def"); got != "def" {
		t.Fatalf("EnvString default=%q", got)
	}

	t.Setenv("X_BOOL", "true")
	if !EnvBool("X_BOOL", false) {
		t.Fatalf("EnvBool true")
	}
	t.Setenv("X_BOOL", "nonsense")
	if EnvBool("X_BOOL", false) {
		t.Fatalf("EnvBool bad value should fall back")
	}

	t.Setenv("X_INT", "42")
	if got := EnvInt("X_INT", 7); got != 42 {
		t.Fatalf("EnvInt=%d", got)
	}
	t.Setenv("X_INT", "-3")
	if got := EnvInt("X_INT", 7); got != 7 {
		t.Fatalf("EnvInt negative should fall back, got %d", got)
	}

	t.Setenv("X_DUR", "90s")
	if got := EnvDuration("X_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("EnvDuration=%v", got)
	}
	t.Setenv("X_DUR", "-5s")
	if got := EnvDuration("X_DUR", time.Second); got != time.Second {
		t.Fatalf("EnvDuration negative should fall back, got %v", got)
	}
}
