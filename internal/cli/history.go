// history.go implements the "pulsegate history" command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pulsegate-dev/pulsegate/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent authorization attempts",
	RunE:  runHistoryCmd,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of attempts to show")
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	dbPath := filepath.Join(dir, ".pulsegate", "history.db")
	if _, statErr := os.Stat(dbPath); statErr != nil {
		fmt.Println("No attempts recorded yet.")
		return nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = store.Close() }()

	summaries, err := store.ListAttempts(historyLimit)
	if err != nil {
		return fmt.Errorf("listing attempts: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No attempts recorded yet.")
		return nil
	}

	for _, sum := range summaries {
		line := fmt.Sprintf("%s  %-9s  tries=%d", sum.FinishedAt.Format("2006-01-02 15:04:05"), sum.Outcome, sum.Tries)
		if sum.Reason != "" {
			line += "  " + sum.Reason
		}
		fmt.Println(line)
	}
	return nil
}
