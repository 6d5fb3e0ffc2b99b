// Package cmd implements the networth CLI commands.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagQuiet   bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "networth",
	Short: "Personal net worth tracker",
	Long: "Record net worth snapshots, compare them against a linear savings target,\n" +
		"and optionally sync them to your own networth server.",
	SilenceUsage: true,
	RunE:         runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log sync activity to stderr")
}

// newLogger returns the process logger writing to w. Sync failures are
// always logged; --verbose adds debug output and --quiet leaves errors only.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case flagVerbose:
		level = slog.LevelDebug
	case flagQuiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// progressf prints an indented progress line to stderr unless --quiet.
func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}
