// Package cli defines Cobra command definitions for the pulsegate CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pulsegate-dev/pulsegate/internal/config"
	"github.com/pulsegate-dev/pulsegate/internal/tui"
	"github.com/pulsegate-dev/pulsegate/internal/tui/app"
)

var (
	verbose bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "pulsegate",
	Short: "Health-data authorization orchestrator",
	Long: `Pulsegate coordinates permission requests against an external
health-data broker. It handles the broker's initialization handshake,
retries transient failures, and recovers from requests the broker
never answers.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !tui.IsTTY() {
			return cmd.Help()
		}

		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		// Try to read config, use defaults if not initialized
		cfg, err := config.ReadConfig(dir)
		if err != nil {
			cfg = config.DefaultConfig()
		}

		tuiApp, err := app.New(cfg, dir)
		if err != nil {
			return err
		}
		return tui.Run(tuiApp)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Verbose returns true if --verbose flag is set.
func Verbose() bool {
	return verbose
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print every state transition during a request")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(brokerdCmd)
}
