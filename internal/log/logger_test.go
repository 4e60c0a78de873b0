package log

import (
	"testing"
)

func TestAppendAndReadAll(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	events := []LogEvent{
		{Event: EventInitStarted, Epoch: 1},
		{Event: EventInitReady, Epoch: 1},
		{Event: EventPermissionRequested, Epoch: 2, Categories: "sleep_session/read"},
		{Event: EventRequestTimeout, Epoch: 2},
	}
	for _, ev := range events {
		if err := logger.Append(ev); err != nil {
			t.Fatalf("Append(%s) error = %v", ev.Event, err)
		}
	}

	got, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("ReadAll() returned %d events, want %d", len(got), len(events))
	}
	for i, ev := range got {
		if ev.Event != events[i].Event {
			t.Errorf("event %d = %q, want %q", i, ev.Event, events[i].Event)
		}
		if ev.Time.IsZero() {
			t.Errorf("event %d has zero timestamp", i)
		}
	}
}

func TestReadAllMissingFile(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("ReadAll() = %d events for missing file, want 0", len(events))
	}
}
