// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
	"github.com/pulsegate-dev/pulsegate/internal/tui"
)

// WaitSnapshot blocks on the orchestrator's update stream and delivers the
// next snapshot. The app re-issues it after every SnapshotMsg so the stream
// is always being read.
func WaitSnapshot(ctrl *orchestrator.Controller) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ctrl.Updates()
		if !ok {
			return tui.StreamClosedMsg{}
		}
		return tui.SnapshotMsg{Snapshot: snap}
	}
}

// Initialize asks the orchestrator to run the initialization handshake.
// State arrives through the snapshot stream, not through this command.
func Initialize(ctrl *orchestrator.Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Initialize()
		return nil
	}
}

// Request asks the orchestrator to start a permission cycle.
func Request(ctrl *orchestrator.Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.RequestPermission()
		return nil
	}
}

// SetActivity feeds a host activity transition into the lifecycle guard.
func SetActivity(ctrl *orchestrator.Controller, a orchestrator.Activity) tea.Cmd {
	return func() tea.Msg {
		ctrl.SetActivity(a)
		return nil
	}
}
