package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulsegate-dev/pulsegate/internal/history"
	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
	"github.com/pulsegate-dev/pulsegate/internal/tui"
)

func historyPath(dir string) string {
	return filepath.Join(dir, ".pulsegate", "history.db")
}

// LoadHistory reads recent attempts from the history database.
func LoadHistory(dir string, limit int) tea.Cmd {
	return func() tea.Msg {
		store, err := history.NewStore(historyPath(dir))
		if err != nil {
			return tui.HistoryErrorMsg{Err: err}
		}
		defer func() { _ = store.Close() }()

		attempts, err := store.ListAttempts(limit)
		if err != nil {
			return tui.HistoryErrorMsg{Err: err}
		}
		return tui.HistoryLoadedMsg{Attempts: attempts}
	}
}

// RecordAttempt persists a settled attempt with its observed transitions as
// step rows. This mirrors the logic from cli/request.go but adapted for TUI
// use: the in-flight snapshot carries the attempt bookkeeping that terminal
// snapshots drop.
func RecordAttempt(dir string, final, inflight orchestrator.Snapshot, trail []orchestrator.Snapshot) tea.Cmd {
	return func() tea.Msg {
		store, err := history.NewStore(historyPath(dir))
		if err != nil {
			return tui.HistoryErrorMsg{Err: err}
		}
		defer func() { _ = store.Close() }()

		tries := inflight.Attempt
		if tries == 0 {
			tries = 1
		}

		var granted []string
		if final.Grant != nil {
			for _, p := range final.Grant.Pairs {
				granted = append(granted, string(p.Record))
			}
		}

		outcome := "failed"
		switch final.Phase {
		case orchestrator.PhaseGranted:
			outcome = "granted"
		case orchestrator.PhaseDenied:
			outcome = "denied"
		case orchestrator.PhaseTimedOut:
			outcome = "timed_out"
		}

		att, err := store.RecordAttempt(inflight.StartedAt, outcome, tries, final.Reason, strings.Join(granted, ","))
		if err != nil {
			return tui.HistoryErrorMsg{Err: err}
		}

		var last orchestrator.Snapshot
		for i, snap := range trail {
			if i > 0 && snap.Phase == last.Phase && snap.Attempt == last.Attempt {
				continue
			}
			last = snap

			detail := snap.Reason
			if detail == "" && snap.Attempt > 0 {
				detail = fmt.Sprintf("attempt %d", snap.Attempt)
			}
			if err := store.AddStep(att.ID, snap.Phase.String(), detail); err != nil {
				return tui.HistoryErrorMsg{Err: err}
			}
		}
		return tui.AttemptRecordedMsg{}
	}
}
