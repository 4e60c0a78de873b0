package tui

import (
	"github.com/pulsegate-dev/pulsegate/internal/history"
	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
)

// ============================================================================
// Orchestrator Messages
// ============================================================================

// SnapshotMsg carries one orchestrator state snapshot into the TUI.
type SnapshotMsg struct {
	Snapshot orchestrator.Snapshot
}

// StreamClosedMsg signals that the orchestrator's update stream has ended.
type StreamClosedMsg struct{}

// ============================================================================
// History Messages
// ============================================================================

// HistoryLoadedMsg delivers recent attempts from the history database.
type HistoryLoadedMsg struct {
	Attempts []history.Summary
}

// HistoryErrorMsg signals an error while reading history.
type HistoryErrorMsg struct {
	Err error
}

// AttemptRecordedMsg signals that a settled attempt was written to history.
type AttemptRecordedMsg struct{}
