package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Broker.Mode = "daemon"
	cfg.Broker.DaemonAddr = "127.0.0.1:9999"
	cfg.Permissions.Target = string(broker.Steps)

	if err := WriteConfig(dir, cfg); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	got, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if got.Broker.Mode != "daemon" || got.Broker.DaemonAddr != "127.0.0.1:9999" {
		t.Errorf("broker config = %+v, want daemon at 127.0.0.1:9999", got.Broker)
	}
	if got.Permissions.Target != string(broker.Steps) {
		t.Errorf("Target = %q, want %q", got.Permissions.Target, broker.Steps)
	}
}

func TestDefaultSimInitializesFirstTry(t *testing.T) {
	sim := DefaultConfig().Broker.Sim.NewSim()

	ok, err := sim.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !ok {
		t.Fatal("Initialize() declined with default config, want acceptance")
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(t.TempDir()); err == nil {
		t.Fatal("ReadConfig() on empty dir succeeded, want error")
	}
}

func TestReadConfigMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".pulsegate"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".pulsegate", "config.yaml"), []byte("{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadConfig(dir); err == nil {
		t.Fatal("ReadConfig() on malformed file succeeded, want error")
	}
}

func TestOrchestratorPolicyDefaults(t *testing.T) {
	// An empty policy block falls back to the reference values.
	var p PolicyConfig
	policy := p.OrchestratorPolicy()

	if policy.InitSettle != 500*time.Millisecond {
		t.Errorf("InitSettle = %v, want 500ms", policy.InitSettle)
	}
	if policy.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", policy.RequestTimeout)
	}
	if policy.InitAttempts != 3 || policy.RequestAttempts != 2 {
		t.Errorf("attempts = (%d, %d), want (3, 2)", policy.InitAttempts, policy.RequestAttempts)
	}
}

func TestOrchestratorPolicyOverrides(t *testing.T) {
	p := PolicyConfig{RequestTimeoutS: 5, InitAttempts: 1}
	policy := p.OrchestratorPolicy()

	if policy.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", policy.RequestTimeout)
	}
	if policy.InitAttempts != 1 {
		t.Errorf("InitAttempts = %d, want 1", policy.InitAttempts)
	}
	// Untouched fields keep their defaults.
	if policy.RecoveryGrace != time.Second {
		t.Errorf("RecoveryGrace = %v, want 1s", policy.RecoveryGrace)
	}
}

func TestPermissionsRequestFallsBackToSleep(t *testing.T) {
	var p PermissionsConfig
	req := p.Request()
	if req.Len() != 1 {
		t.Fatalf("Request().Len() = %d, want 1", req.Len())
	}
	if req.Pairs()[0] != broker.Read(broker.SleepSession) {
		t.Errorf("Request() = %v, want sleep_session read", req.Pairs())
	}
	if p.TargetPair() != broker.Read(broker.SleepSession) {
		t.Errorf("TargetPair() = %v, want sleep_session read", p.TargetPair())
	}
}

func TestSimConfigBuildsSim(t *testing.T) {
	s := SimConfig{
		Status:      "update_required",
		InitDefects: 2,
		LatencyMs:   10,
		Deny:        []string{"steps"},
	}
	sim := s.NewSim()

	if sim.Status != broker.StatusUpdateRequired {
		t.Errorf("Status = %v, want %v", sim.Status, broker.StatusUpdateRequired)
	}
	if sim.InitDefects != 2 {
		t.Errorf("InitDefects = %d, want 2", sim.InitDefects)
	}
	if sim.Latency != 10*time.Millisecond {
		t.Errorf("Latency = %v, want 10ms", sim.Latency)
	}
	if len(sim.Deny) != 1 || sim.Deny[0] != broker.Steps {
		t.Errorf("Deny = %v, want [steps]", sim.Deny)
	}
}
