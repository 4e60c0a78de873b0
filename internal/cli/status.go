// status.go implements the "pulsegate status" command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pulsegate-dev/pulsegate/internal/config"
	"github.com/pulsegate-dev/pulsegate/internal/history"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show broker availability and configured categories",
	RunE:  runStatusCmd,
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.ReadConfig(dir)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	mode := cfg.Broker.Mode
	if mode == "" {
		mode = "sim"
	}
	fmt.Printf("Broker mode: %s\n", mode)
	if mode == "daemon" {
		fmt.Printf("Daemon addr: %s\n", cfg.Broker.DaemonAddr)
	}

	client, err := buildClient(cmd.Context(), cfg)
	if err != nil {
		fmt.Printf("Broker:      unreachable (%v)\n", err)
		return nil
	}

	status, err := client.GetStatus(cmd.Context())
	if err != nil {
		fmt.Printf("Broker:      status check failed (%v)\n", err)
		return nil
	}
	fmt.Printf("Broker:      %s\n", status)

	fmt.Printf("Target:      %s\n", cfg.Permissions.TargetPair())
	fmt.Printf("Requesting:  %s\n", cfg.Permissions.Request())

	printRecentAttempts(dir)
	return nil
}

func printRecentAttempts(dir string) {
	dbPath := filepath.Join(dir, ".pulsegate", "history.db")
	if _, err := os.Stat(dbPath); err != nil {
		return
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return
	}
	defer func() { _ = store.Close() }()

	summaries, err := store.ListAttempts(3)
	if err != nil || len(summaries) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Recent attempts:")
	for _, sum := range summaries {
		fmt.Printf("  %s  %-9s  tries=%d\n", sum.FinishedAt.Format("2006-01-02 15:04"), sum.Outcome, sum.Tries)
	}
}
