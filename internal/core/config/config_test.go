package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "salespulse.yaml")
	requireNoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	requireNoError(t, err)

	if cfg.Database.Type != DatabasePostgres {
		t.Fatalf("expected postgres default, got %q", cfg.Database.Type)
	}
	if cfg.Aggregation.TopN != 5 {
		t.Fatalf("expected top_n 5, got %d", cfg.Aggregation.TopN)
	}
	if cfg.Feed.MaxReconnect != 30*time.Second {
		t.Fatalf("expected 30s max reconnect, got %s", cfg.Feed.MaxReconnect)
	}
	w, err := cfg.Live.Window()
	requireNoError(t, err)
	if !w.OpenEnded() || w.Start.Year() != 2000 {
		t.Fatalf("expected open-ended live window from 2000-01-01, got %+v", w)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "127.0.0.1"
  cors_origins: ["https://dash.example.com"]
  rate_limit_rps: 20
  rate_limit_burst: 40
database:
  type: "memory"
aggregation:
  top_n: 10
feed:
  min_reconnect: "1s"
  max_reconnect: "1m"
live:
  window_start: "2024-01-01"
  window_end: "2024-12-31"
archive:
  enabled: true
  interval: "1h"
  lookback: "6h"
logging:
  format: "json"
`)

	cfg, err := Load(path)
	requireNoError(t, err)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr())
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://dash.example.com" {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.RateLimitRPS != 20 || cfg.Server.RateLimitBurst != 40 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}
	if cfg.Database.Type != DatabaseMemory {
		t.Fatalf("expected memory store, got %q", cfg.Database.Type)
	}
	if cfg.Archive.Lookback != 6*time.Hour {
		t.Fatalf("expected 6h lookback, got %s", cfg.Archive.Lookback)
	}
	w, err := cfg.Live.Window()
	requireNoError(t, err)
	if w.OpenEnded() {
		t.Fatal("expected a closed live window")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  type: "postgres"
  dsn: "postgres://file@localhost/salespulse"
`)
	t.Setenv("SALESPULSE_DATABASE__DSN", "postgres://env@localhost/salespulse")
	t.Setenv("SALESPULSE_AGGREGATION__JOIN_WORKERS", "3")

	cfg, err := Load(path)
	requireNoError(t, err)
	if cfg.Database.DSN != "postgres://env@localhost/salespulse" {
		t.Fatalf("expected env dsn, got %q", cfg.Database.DSN)
	}
	if cfg.Aggregation.JoinWorkers != 3 {
		t.Fatalf("expected 3 join workers, got %d", cfg.Aggregation.JoinWorkers)
	}
}

func TestLoad_InvalidConfigFailsStartup(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"server port", "server:\n  port: -1\n", "invalid server.port"},
		{"database type", "database:\n  type: \"sqlite\"\n", "unsupported database.type"},
		{"mongo without uri", "database:\n  type: \"mongo\"\n  mongo:\n    uri: \"\"\n", "database.mongo.uri is required"},
		{"top n", "aggregation:\n  top_n: 0\n", "aggregation.top_n must be > 0"},
		{"reconnect bounds", "feed:\n  min_reconnect: \"10s\"\n  max_reconnect: \"1s\"\n", "feed.max_reconnect"},
		{"live window", "live:\n  window_start: \"not-a-date\"\n", "invalid live window"},
		{"archive interval", "archive:\n  enabled: true\n  interval: \"0s\"\n", "archive.interval must be > 0"},
		{"rate burst", "server:\n  rate_limit_rps: 5\n  rate_limit_burst: 0\n", "server.rate_limit_burst"},
		{"log format", "logging:\n  format: \"xml\"\n", "invalid logging.format"},
		{"bad duration", "feed:\n  min_reconnect: \"soon\"\n", "failed to unmarshal config"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to load config file") {
		t.Fatalf("expected file load error, got %v", err)
	}
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
