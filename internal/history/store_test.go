package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGetAttempt(t *testing.T) {
	store := openTestStore(t)

	started := time.Now().Add(-5 * time.Second)
	att, err := store.RecordAttempt(started, "granted", 1, "", "sleep_session")
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if att.ID == "" {
		t.Fatal("RecordAttempt() returned empty ID")
	}

	got, err := store.GetAttempt(att.ID)
	if err != nil {
		t.Fatalf("GetAttempt() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetAttempt() returned nil for existing attempt")
	}
	if got.Outcome != "granted" {
		t.Errorf("Outcome = %q, want %q", got.Outcome, "granted")
	}
	if got.Granted != "sleep_session" {
		t.Errorf("Granted = %q, want %q", got.Granted, "sleep_session")
	}
}

func TestGetAttemptMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetAttempt("no-such-id")
	if err != nil {
		t.Fatalf("GetAttempt() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetAttempt() = %+v, want nil", got)
	}
}

func TestLatestGranted(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.RecordAttempt(time.Now(), "denied", 1, "", ""); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	latest, err := store.LatestGranted()
	if err != nil {
		t.Fatalf("LatestGranted() error = %v", err)
	}
	if latest != nil {
		t.Errorf("LatestGranted() = %+v, want nil with no grants", latest)
	}

	want, err := store.RecordAttempt(time.Now(), "granted", 2, "", "sleep_session")
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	latest, err = store.LatestGranted()
	if err != nil {
		t.Fatalf("LatestGranted() error = %v", err)
	}
	if latest == nil || latest.ID != want.ID {
		t.Errorf("LatestGranted() = %+v, want ID %s", latest, want.ID)
	}
}

func TestListAttemptsCountsSteps(t *testing.T) {
	store := openTestStore(t)

	att, err := store.RecordAttempt(time.Now(), "timed_out", 1, "no response within 30s", "")
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if err := store.AddStep(att.ID, "requesting", "attempt 1"); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}
	if err := store.AddStep(att.ID, "timed_out", ""); err != nil {
		t.Fatalf("AddStep() error = %v", err)
	}

	summaries, err := store.ListAttempts(10)
	if err != nil {
		t.Fatalf("ListAttempts() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("ListAttempts() returned %d summaries, want 1", len(summaries))
	}
	if summaries[0].Steps != 2 {
		t.Errorf("Steps = %d, want 2", summaries[0].Steps)
	}
	if summaries[0].Outcome != "timed_out" {
		t.Errorf("Outcome = %q, want %q", summaries[0].Outcome, "timed_out")
	}

	steps, err := store.GetSteps(att.ID)
	if err != nil {
		t.Fatalf("GetSteps() error = %v", err)
	}
	if len(steps) != 2 || steps[0].Phase != "requesting" {
		t.Errorf("GetSteps() = %+v, want 2 steps starting with requesting", steps)
	}
}
