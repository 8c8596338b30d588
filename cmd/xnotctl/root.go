package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xnotid/xnotid/internal/dbus"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	globalOpts struct {
		verbose bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xnotctl",
	Short: "Control a running xnotid notification daemon",
	Long: `xnotctl talks to a running xnotid daemon over D-Bus.

It can send notifications (including interactive cards), close them,
manage the notification center and Do Not Disturb mode, and inspect
daemon status and the lifecycle journal.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// connect opens a client connection to the daemon.
func connect() (*dbus.Client, error) {
	client, err := dbus.Connect()
	if err != nil {
		return nil, fmt.Errorf("cannot reach xnotid: %w", err)
	}
	return client, nil
}
