package config

import (
	"os"
	"testing"

	"github.com/maloquacious/goobtool/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GOOB_DB", "GOOB_RECORDS", "GOOB_MIGRATIONS", "GOOB_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{
		DBPath:        "goobtool.db",
		RecordsPath:   store.GetRecordPath(store.GetStorePath()),
		MigrationsDir: "migrations",
		LogLevel:      "info",
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOOB_DB", "/var/lib/app.db")
	t.Setenv("GOOB_RECORDS", "/var/lib/applied.csv")
	t.Setenv("GOOB_MIGRATIONS", "sql")
	t.Setenv("GOOB_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Config{
		DBPath:        "/var/lib/app.db",
		RecordsPath:   "/var/lib/applied.csv",
		MigrationsDir: "sql",
		LogLevel:      "debug",
	}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}
