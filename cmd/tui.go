package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/state"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui"
	"github.com/sahilbhatiani/net-worth-tracker/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive net worth dashboard",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// tuiLogger writes to a log file so log lines never land on the alt screen.
func tuiLogger() (*slog.Logger, func()) {
	path := filepath.Join(config.CacheDir(), "networth.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return slog.New(slog.DiscardHandler), func() {}
	}
	//nolint:gosec // log path is under the user's cache dir
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return slog.New(slog.DiscardHandler), func() {}
	}
	return newLogger(f), func() { _ = f.Close() }
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	logger, closeLog := tuiLogger()
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := tui.NewBus()
	e, err := openEnv(ctx, envOptions{
		restoreGuest: cfg.Cache.RestoreGuest,
		liveUpdates:  cfg.Sync.LiveUpdates,
		logger:       logger,
		onError:      bus.SyncError,
		onSync:       bus.Synced,
	})
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	defer e.Close()

	unsubState := e.st.Subscribe(func(state.Change) { bus.StateChanged() })
	defer unsubState()
	unsubAuth := e.session.Subscribe(func(_ auth.Identity, ok bool) { bus.AuthChanged(ok) })
	defer unsubAuth()

	// Sign-ins from another terminal (`networth login`) reach this session.
	go func() {
		if err := e.session.Watch(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("watching credentials", slog.Any("error", err))
		}
	}()

	opts := tui.Options{
		State:     e.st,
		Bus:       bus,
		Sync:      e.gateway,
		Session:   e.session,
		Config:    e.cfg,
		NeedSetup: !config.Exists(),
	}
	if e.client != nil {
		opts.Accounts = e.client
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
