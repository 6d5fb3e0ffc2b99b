// Package config loads and saves the networth TOML configuration and knows
// where the tool keeps its files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

const appName = "networth"

// Environment overrides, applied on top of the config file.
const (
	EnvServerURL = "NETWORTH_SERVER_URL"
	EnvJWTSecret = "NETWORTH_JWT_SECRET"
	EnvDSN       = "NETWORTH_DB_DSN"
)

// Config holds all networth configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Sync       SyncConfig       `toml:"sync"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	RecentEntries int `toml:"recent_entries"`
}

// SyncConfig points the client at a sync server.
type SyncConfig struct {
	ServerURL   string `toml:"server_url,omitempty"`
	LiveUpdates bool   `toml:"live_updates"`
}

// CacheConfig holds local cache settings.
type CacheConfig struct {
	Path string `toml:"path,omitempty"`
	// RestoreGuest loads the cached document at startup when nobody is
	// signed in.
	RestoreGuest bool `toml:"restore_guest"`
}

// ServerConfig configures `networth serve`.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	Backend       string `toml:"backend"`
	DSN           string `toml:"dsn,omitempty"`
	JWTSecret     string `toml:"jwt_secret,omitempty"`
	TokenTTLHours int    `toml:"token_ttl_hours"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			RecentEntries: 5,
		},
		Sync: SyncConfig{
			LiveUpdates: true,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8787",
			Backend:       "sqlite",
			TokenTTLHours: 24 * 30,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CredentialsPath returns where the signed-in session is stored.
func CredentialsPath() string {
	return filepath.Join(ConfigDir(), "credentials.json")
}

// CachePath returns the local cache database, honoring [cache] path.
func (c Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "cache.db")
}

// ServerDSN returns the document store DSN for the server. The SQLite
// backend defaults to a file in the cache dir.
func (c Config) ServerDSN() string {
	if c.Server.DSN != "" {
		return c.Server.DSN
	}
	if c.Server.Backend == "postgres" {
		return ""
	}
	return filepath.Join(CacheDir(), "server.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied either way.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.Sync.ServerURL = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.Server.JWTSecret = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.Server.DSN = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Set updates one setting by its dotted TOML key, e.g. "sync.server_url".
func Set(cfg *Config, key, value string) error {
	switch key {
	case "general.recent_entries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: want a positive integer, got %q", key, value)
		}
		cfg.General.RecentEntries = n
	case "sync.server_url":
		cfg.Sync.ServerURL = value
	case "sync.live_updates":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Sync.LiveUpdates = b
	case "cache.path":
		cfg.Cache.Path = value
	case "cache.restore_guest":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Cache.RestoreGuest = b
	case "server.addr":
		cfg.Server.Addr = value
	case "server.backend":
		if value != "sqlite" && value != "postgres" {
			return fmt.Errorf("%s: want sqlite or postgres, got %q", key, value)
		}
		cfg.Server.Backend = value
	case "server.dsn":
		cfg.Server.DSN = value
	case "server.jwt_secret":
		cfg.Server.JWTSecret = value
	case "server.token_ttl_hours":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: want a positive integer, got %q", key, value)
		}
		cfg.Server.TokenTTLHours = n
	case "appearance.theme":
		cfg.Appearance.Theme = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
