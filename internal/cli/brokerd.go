// brokerd.go implements the "pulsegate brokerd" command: a standalone
// simulated broker daemon for daemon-mode testing.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pulsegate-dev/pulsegate/internal/brokerd"
	"github.com/pulsegate-dev/pulsegate/internal/config"
)

var brokerdAddr string

var brokerdCmd = &cobra.Command{
	Use:   "brokerd",
	Short: "Run a simulated broker daemon",
	Long: `Serve the broker protocol over localhost HTTP, backed by the
simulator configured under broker.sim. Point broker.mode at "daemon"
to make pulsegate talk to it.`,
	RunE: runBrokerdCmd,
}

func init() {
	brokerdCmd.Flags().StringVar(&brokerdAddr, "addr", "", "Listen address (default: broker.daemon_addr from config)")
}

func runBrokerdCmd(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.ReadConfig(dir)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	addr := brokerdAddr
	if addr == "" {
		addr = cfg.Broker.DaemonAddr
	}

	srv, err := brokerd.NewServer(addr, cfg.Broker.Sim.NewSim())
	if err != nil {
		return err
	}

	fmt.Printf("Broker daemon listening on %s\n", srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\nShutting down.")
		return srv.Stop()
	}
}
