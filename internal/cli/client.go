// client.go builds the broker client selected by configuration.
package cli

import (
	"context"
	"fmt"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
	"github.com/pulsegate-dev/pulsegate/internal/config"
)

// buildClient returns the broker client the config selects: the in-process
// simulator, or an HTTP client for a running daemon. Daemon mode is verified
// reachable before it is returned.
func buildClient(ctx context.Context, cfg *config.Config) (broker.Client, error) {
	switch cfg.Broker.Mode {
	case "", "sim":
		return cfg.Broker.Sim.NewSim(), nil

	case "daemon":
		client := broker.NewHTTPClient(cfg.Broker.DaemonAddr)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("broker daemon at %s is not reachable: %w (start one with `pulsegate brokerd`)", cfg.Broker.DaemonAddr, err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown broker mode %q (want sim or daemon)", cfg.Broker.Mode)
	}
}
