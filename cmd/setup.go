package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/remote"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	themeName := theme.ByName(cfg.Appearance.Theme).Name
	serverURL := cfg.Sync.ServerURL
	liveUpdates := cfg.Sync.LiveUpdates
	restoreGuest := cfg.Cache.RestoreGuest

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to networth").
				Description("Track net worth snapshots against a savings target.\nNothing leaves this machine unless you sign in to a sync server."),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&themeName),
			huh.NewInput().
				Title("Sync server URL").
				Description("Leave blank to stay local-only.").
				Placeholder("http://127.0.0.1:8787").
				Validate(validateServerURL).
				Value(&serverURL),
			huh.NewConfirm().
				Title("Follow remote changes live?").
				Value(&liveUpdates),
			huh.NewConfirm().
				Title("Reopen the local cache in the dashboard when signed out?").
				Value(&restoreGuest),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	cfg.Appearance.Theme = themeName
	cfg.Sync.ServerURL = strings.TrimSpace(serverURL)
	cfg.Sync.LiveUpdates = liveUpdates
	cfg.Cache.RestoreGuest = restoreGuest

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if cfg.Sync.ServerURL != "" {
		fmt.Println("  Run `networth login` to sign in and start syncing.")
	}
	fmt.Println("  Run `networth setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateServerURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := remote.NewClient(s)
	return err
}
