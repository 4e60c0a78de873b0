// request.go implements the "pulsegate request" command: a full
// authorization attempt without the TUI.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
	"github.com/pulsegate-dev/pulsegate/internal/config"
	"github.com/pulsegate-dev/pulsegate/internal/history"
	"github.com/pulsegate-dev/pulsegate/internal/log"
	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
	"github.com/pulsegate-dev/pulsegate/internal/ui"
)

var requestCmd = &cobra.Command{
	Use:     "request",
	Aliases: []string{"connect"},
	Short:   "Run one authorization attempt against the broker",
	Long: `Initialize the broker and request the configured permission
categories. Prints each state transition with --verbose and records the
settled outcome in the local history database.`,
	RunE: runRequestCmd,
}

func runRequestCmd(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.ReadConfig(dir)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	logger, err := log.NewLogger(dir)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client, err := buildClient(ctx, cfg)
	if err != nil {
		return err
	}

	ctrl := orchestrator.New(
		cfg.Policy.OrchestratorPolicy(),
		client,
		cfg.Permissions.Request(),
		cfg.Permissions.TargetPair(),
		logger,
	)
	go ctrl.Run(ctx)

	var display *ui.PhaseDisplay
	observe := printTransition
	if !Verbose() {
		display = ui.NewPhaseDisplay()
		observe = display.Update
	}

	ctrl.Initialize()
	final, _, err := drainUntil(ctx, ctrl, observe, orchestrator.PhaseReady)
	if err != nil {
		return err
	}
	if final.Phase != orchestrator.PhaseReady {
		return fmt.Errorf("broker initialization failed: %s", final.Reason)
	}

	var trail []orchestrator.Snapshot
	track := func(snap orchestrator.Snapshot) {
		observe(snap)
		trail = append(trail, snap)
	}

	ctrl.RequestPermission()
	final, inflight, err := drainUntil(ctx, ctrl, track)
	if display != nil {
		display.Finish()
	}
	if err != nil {
		return err
	}

	if cfg.History.Enabled {
		if recErr := recordAttempt(dir, final, inflight, trail); recErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record attempt: %v\n", recErr)
		}
	}

	switch final.Phase {
	case orchestrator.PhaseGranted:
		fmt.Printf("Granted: %s\n", grantedList(final.Grant))
		return nil
	case orchestrator.PhaseDenied:
		return fmt.Errorf("permission denied: the grant did not include %s", cfg.Permissions.TargetPair())
	case orchestrator.PhaseTimedOut:
		return fmt.Errorf("the broker did not respond in time")
	default:
		return fmt.Errorf("request failed: %s", final.Reason)
	}
}

// drainUntil consumes snapshots until a terminal phase (or one of the extra
// accepted phases) is reached, feeding each one to observe. It also returns
// the last in-flight snapshot seen, since terminal snapshots do not carry
// attempt bookkeeping.
func drainUntil(ctx context.Context, ctrl *orchestrator.Controller, observe func(orchestrator.Snapshot), accept ...orchestrator.Phase) (final, inflight orchestrator.Snapshot, err error) {
	accepted := make(map[orchestrator.Phase]bool, len(accept))
	for _, p := range accept {
		accepted[p] = true
	}

	for {
		select {
		case <-ctx.Done():
			return orchestrator.Snapshot{}, inflight, ctx.Err()
		case snap, ok := <-ctrl.Updates():
			if !ok {
				return orchestrator.Snapshot{}, inflight, fmt.Errorf("orchestrator stopped unexpectedly")
			}
			observe(snap)
			if snap.Phase == orchestrator.PhaseRequesting {
				inflight = snap
			}
			if snap.Phase.Terminal() || accepted[snap.Phase] {
				return snap, inflight, nil
			}
		}
	}
}

func printTransition(snap orchestrator.Snapshot) {
	line := snap.Phase.String()
	if snap.Attempt > 1 {
		line += fmt.Sprintf(" (attempt %d)", snap.Attempt)
	}
	if snap.Reason != "" {
		line += ": " + snap.Reason
	}
	fmt.Printf("  %s\n", line)
}

func recordAttempt(dir string, final, inflight orchestrator.Snapshot, trail []orchestrator.Snapshot) error {
	store, err := history.NewStore(filepath.Join(dir, ".pulsegate", "history.db"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	tries := inflight.Attempt
	if tries == 0 {
		tries = 1
	}
	att, err := store.RecordAttempt(inflight.StartedAt, outcomeName(final.Phase), tries, final.Reason, grantedList(final.Grant))
	if err != nil {
		return err
	}

	for _, snap := range collapseTrail(trail) {
		if err := store.AddStep(att.ID, snap.Phase.String(), stepDetail(snap)); err != nil {
			return err
		}
	}
	return nil
}

// collapseTrail drops consecutive snapshots that describe the same
// transition; the controller may publish the same phase and attempt twice.
func collapseTrail(trail []orchestrator.Snapshot) []orchestrator.Snapshot {
	var out []orchestrator.Snapshot
	for _, snap := range trail {
		if n := len(out); n > 0 && out[n-1].Phase == snap.Phase && out[n-1].Attempt == snap.Attempt {
			continue
		}
		out = append(out, snap)
	}
	return out
}

func stepDetail(snap orchestrator.Snapshot) string {
	if snap.Reason != "" {
		return snap.Reason
	}
	if snap.Attempt > 0 {
		return fmt.Sprintf("attempt %d", snap.Attempt)
	}
	return ""
}

func outcomeName(p orchestrator.Phase) string {
	switch p {
	case orchestrator.PhaseGranted:
		return "granted"
	case orchestrator.PhaseDenied:
		return "denied"
	case orchestrator.PhaseTimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

func grantedList(g *broker.Grant) string {
	if g == nil {
		return ""
	}
	parts := make([]string, 0, len(g.Pairs))
	for _, p := range g.Pairs {
		parts = append(parts, string(p.Record))
	}
	return strings.Join(parts, ",")
}
