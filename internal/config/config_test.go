package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(EnvServerURL, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvDSN, "")
	return dir
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if Exists() {
		t.Error("Exists() = true without a file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.Sync.ServerURL = "https://sync.example.com"
	cfg.Cache.RestoreGuest = true
	cfg.Appearance.Theme = "tokyo-night"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvServerURL, "http://env.test:9000")
	t.Setenv(EnvJWTSecret, "from-env-secret-123456")
	t.Setenv(EnvDSN, "postgres://env")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sync.ServerURL != "http://env.test:9000" || cfg.Server.JWTSecret != "from-env-secret-123456" || cfg.Server.DSN != "postgres://env" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_RejectsMalformedFile(t *testing.T) {
	isolate(t)
	if err := os.MkdirAll(ConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(), []byte("[sync\nserver_url = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load accepted malformed TOML")
	}
}

func TestPaths(t *testing.T) {
	dir := isolate(t)

	cfg := DefaultConfig()
	if want := filepath.Join(dir, "cache", "networth", "cache.db"); cfg.CachePath() != want {
		t.Errorf("CachePath() = %q, want %q", cfg.CachePath(), want)
	}
	if want := filepath.Join(dir, "config", "networth", "credentials.json"); CredentialsPath() != want {
		t.Errorf("CredentialsPath() = %q, want %q", CredentialsPath(), want)
	}

	cfg.Cache.Path = "/tmp/custom.db"
	if cfg.CachePath() != "/tmp/custom.db" {
		t.Errorf("CachePath() ignored [cache] path")
	}

	cfg.Server.Backend = "postgres"
	if cfg.ServerDSN() != "" {
		t.Errorf("postgres ServerDSN() = %q, want empty", cfg.ServerDSN())
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"sync.server_url", "http://localhost:8787", false},
		{"sync.live_updates", "false", false},
		{"general.recent_entries", "10", false},
		{"general.recent_entries", "0", true},
		{"server.backend", "mysql", true},
		{"server.backend", "postgres", false},
		{"cache.restore_guest", "maybe", true},
		{"nope.nothing", "x", true},
	}
	for _, tt := range tests {
		err := Set(&cfg, tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("Set(%q, %q) err = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}
	if cfg.Sync.LiveUpdates || cfg.General.RecentEntries != 10 || cfg.Server.Backend != "postgres" {
		t.Errorf("cfg after Set = %+v", cfg)
	}
}
