// init.go implements the "pulsegate init" command.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pulsegate-dev/pulsegate/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pulsegate in the current directory",
	Long: `Create the .pulsegate/ directory with a default configuration.
The config selects the broker mode (built-in simulator or a daemon),
the permission categories to request, and the retry/timeout policy.`,
	RunE: runInitCmd,
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	stateDir := filepath.Join(dir, ".pulsegate")
	if info, statErr := os.Stat(stateDir); statErr == nil && info.IsDir() {
		fmt.Println("Warning: .pulsegate/ directory already exists.")
		fmt.Print("Reinitialize? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.WriteConfig(dir, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Println()
	fmt.Println("Pulsegate initialized")
	fmt.Println("Configuration written to .pulsegate/config.yaml")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit .pulsegate/config.yaml to pick broker mode and categories")
	fmt.Println("  2. Run: pulsegate request")
	return nil
}
