package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the built-in defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Validate.PointsPerCycle != 150 {
		t.Errorf("expected 150 points per cycle, got %d", cfg.Validate.PointsPerCycle)
	}
	if cfg.Validate.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Validate.Workers)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
}

// TestLoad_FromFile verifies file values override defaults while
// unset keys keep them.
func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ranges:
  base: /etc/stridecheck/ranges.yaml
  overrides:
    - /etc/stridecheck/site.yaml
validate:
  workers: 8
storage:
  driver: postgres
  postgres:
    host: db.internal
    port: 5433
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Ranges.Base != "/etc/stridecheck/ranges.yaml" {
		t.Errorf("unexpected base: %q", cfg.Ranges.Base)
	}
	if len(cfg.Ranges.Overrides) != 1 {
		t.Errorf("unexpected overrides: %v", cfg.Ranges.Overrides)
	}
	if cfg.Validate.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Validate.Workers)
	}
	// Unset keys keep their defaults.
	if cfg.Validate.PointsPerCycle != 150 {
		t.Errorf("expected default points per cycle, got %d", cfg.Validate.PointsPerCycle)
	}
	if cfg.Storage.Postgres.Host != "db.internal" || cfg.Storage.Postgres.Port != 5433 {
		t.Errorf("postgres settings not loaded: %+v", cfg.Storage.Postgres)
	}
	if cfg.Storage.Postgres.SSLMode != "disable" {
		t.Errorf("expected default sslmode, got %q", cfg.Storage.Postgres.SSLMode)
	}
}

// TestLoad_BadFile verifies a malformed config file is an error, not a
// silent fallback.
func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

// TestPostgresConnectionString verifies the lib/pq DSN format.
func TestPostgresConnectionString(t *testing.T) {
	pc := PostgresConfig{
		Host: "localhost", Port: 5432, User: "stridecheck",
		Password: "secret", Name: "stridecheck", SSLMode: "disable",
	}
	want := "host=localhost port=5432 user=stridecheck password=secret dbname=stridecheck sslmode=disable"
	if got := pc.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}
