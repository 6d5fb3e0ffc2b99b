package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting, e.g. `config set sync.server_url http://localhost:8787`",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(config.ConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Recent entries: %d\n", cfg.General.RecentEntries)
	fmt.Println()

	fmt.Println("  [Sync]")
	if cfg.Sync.ServerURL != "" {
		fmt.Printf("    Server URL:   %s\n", cfg.Sync.ServerURL)
	} else {
		fmt.Println("    Server URL:   not configured (guest only)")
	}
	fmt.Printf("    Live updates: %v\n", cfg.Sync.LiveUpdates)
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Path:          %s\n", cfg.CachePath())
	fmt.Printf("    Restore guest: %v\n", cfg.Cache.RestoreGuest)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:    %s\n", cfg.Server.Addr)
	fmt.Printf("    Backend:    %s\n", cfg.Server.Backend)
	if dsn := cfg.ServerDSN(); dsn != "" {
		fmt.Printf("    DSN:        %s\n", maskSecret(dsn))
	} else {
		fmt.Println("    DSN:        not configured")
	}
	if cfg.Server.JWTSecret != "" {
		fmt.Printf("    JWT secret: %s\n", maskSecret(cfg.Server.JWTSecret))
	} else {
		fmt.Println("    JWT secret: not configured")
	}
	fmt.Printf("    Token TTL:  %dh\n", cfg.Server.TokenTTLHours)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `networth setup` to reconfigure.")
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	key, value := args[0], args[1]
	if key == "appearance.theme" && theme.ByName(value).Name != value {
		return fmt.Errorf("unknown theme %q (available: %v)", value, theme.Names())
	}
	if err := config.Set(&cfg, key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	progressf("Set %s = %s", key, value)
	return nil
}

func maskSecret(s string) string {
	if len(s) > 16 {
		return s[:8] + "..." + s[len(s)-4:]
	}
	if len(s) > 4 {
		return s[:4] + "..."
	}
	return "****"
}
