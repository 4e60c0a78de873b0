package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsegate-dev/pulsegate/internal/history"
	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
)

func TestRecordAttemptPersistsSteps(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".pulsegate"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	inflight := orchestrator.Snapshot{
		Phase:     orchestrator.PhaseRequesting,
		Attempt:   2,
		StartedAt: time.Now().Add(-3 * time.Second),
	}
	final := orchestrator.Snapshot{
		Phase:  orchestrator.PhaseTimedOut,
		Kind:   orchestrator.KindTimeout,
		Reason: "no response from the broker within the time limit",
	}
	trail := []orchestrator.Snapshot{
		{Phase: orchestrator.PhaseRequesting, Attempt: 1},
		{Phase: orchestrator.PhaseRequesting, Attempt: 1},
		{Phase: orchestrator.PhaseRequesting, Attempt: 2},
		final,
	}

	if err := recordAttempt(dir, final, inflight, trail); err != nil {
		t.Fatalf("recordAttempt() error = %v", err)
	}

	store, err := history.NewStore(filepath.Join(dir, ".pulsegate", "history.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	sums, err := store.ListAttempts(10)
	if err != nil {
		t.Fatalf("ListAttempts() error = %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("recorded %d attempts, want 1", len(sums))
	}
	if sums[0].Outcome != "timed_out" || sums[0].Tries != 2 {
		t.Errorf("summary = %s/%d tries, want timed_out/2", sums[0].Outcome, sums[0].Tries)
	}
	if sums[0].Steps != 3 {
		t.Errorf("summary counts %d steps, want 3 (duplicate transition collapsed)", sums[0].Steps)
	}

	steps, err := store.GetSteps(sums[0].ID)
	if err != nil {
		t.Fatalf("GetSteps() error = %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("GetSteps() returned %d steps, want 3", len(steps))
	}
	wantPhases := []string{"requesting", "requesting", "timed_out"}
	wantDetails := []string{"attempt 1", "attempt 2", final.Reason}
	for i, step := range steps {
		if step.Phase != wantPhases[i] {
			t.Errorf("step %d phase = %q, want %q", i, step.Phase, wantPhases[i])
		}
		if step.Detail != wantDetails[i] {
			t.Errorf("step %d detail = %q, want %q", i, step.Detail, wantDetails[i])
		}
	}
}
