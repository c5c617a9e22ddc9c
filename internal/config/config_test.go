package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookie.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Address != "127.0.0.1:7878" {
		t.Errorf("Address = %q", cfg.Server.Address)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.Path == "" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Duration != 30*24*time.Hour {
		t.Errorf("Cache.Duration = %v, want 30 days", cfg.Cache.Duration)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 5s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.ReadTimeout != 30*time.Second {
		t.Errorf("Fetch.ReadTimeout = %v, want 30s", cfg.Fetch.ReadTimeout)
	}
	if cfg.Fetch.MaxBodyBytes != 1<<20 {
		t.Errorf("Fetch.MaxBodyBytes = %d", cfg.Fetch.MaxBodyBytes)
	}
	if !cfg.DedupeEnabled() {
		t.Error("dedupe should default to true")
	}
	if cfg.Bookmarks.Concurrency != 8 {
		t.Errorf("Bookmarks.Concurrency = %d", cfg.Bookmarks.Concurrency)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9999"
  ipBlockCIDRs: ["10.0.0.0/8"]
cache:
  backend: memory
  maxEntries: 50
  duration: 1h
fetch:
  timeout: 250ms
resolver:
  dedupe: false
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Address != ":9999" {
		t.Errorf("Address = %q", cfg.Server.Address)
	}
	if len(cfg.Server.IPBlockCIDRs) != 1 || cfg.Server.IPBlockCIDRs[0] != "10.0.0.0/8" {
		t.Errorf("IPBlockCIDRs = %v", cfg.Server.IPBlockCIDRs)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.MaxEntries != 50 || cfg.Cache.Duration != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Fetch.Timeout != 250*time.Millisecond {
		t.Errorf("Fetch.Timeout = %v", cfg.Fetch.Timeout)
	}
	if cfg.DedupeEnabled() {
		t.Error("dedupe should be disabled by the file")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
cache:
  backend: memory
fetch:
  timeout: 1s
`)
	t.Setenv("BOOKIE_CACHE_BACKEND", "sqlite")
	t.Setenv("BOOKIE_CACHE_PATH", "/tmp/icons.db")
	t.Setenv("BOOKIE_FETCH_TIMEOUT", "2s")
	t.Setenv("BOOKIE_RESOLVER_DEDUPE", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.Path != "/tmp/icons.db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Fetch.Timeout != 2*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 2s", cfg.Fetch.Timeout)
	}
	if cfg.DedupeEnabled() {
		t.Error("BOOKIE_RESOLVER_DEDUPE=false was ignored")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"BadYAML", "server: [unclosed"},
		{"UnknownBackend", "cache:\n  backend: redis\n"},
		{"TLSWithoutFiles", "server:\n  tls:\n    enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
