package brokerd

import (
	"context"
	"testing"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
)

func startTestDaemon(t *testing.T, sim *broker.Sim) *broker.HTTPClient {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", sim)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	go func() { _ = srv.Start() }()
	t.Cleanup(func() { _ = srv.Stop() })
	return broker.NewHTTPClient(srv.Addr())
}

func TestDaemonHealth(t *testing.T) {
	client := startTestDaemon(t, broker.NewSim())

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestDaemonStatusRoundTrip(t *testing.T) {
	sim := broker.NewSim()
	sim.Status = broker.StatusUpdateRequired
	client := startTestDaemon(t, sim)

	status, err := client.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status != broker.StatusUpdateRequired {
		t.Errorf("GetStatus() = %v, want %v", status, broker.StatusUpdateRequired)
	}
}

func TestDaemonInitializeDefect(t *testing.T) {
	sim := broker.NewSim()
	sim.InitDefects = 1
	client := startTestDaemon(t, sim)

	ok, err := client.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if ok {
		t.Error("first Initialize() = true, want false while defect pending")
	}

	ok, err = client.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !ok {
		t.Error("second Initialize() = false, want true")
	}
}

func TestDaemonRequestPermission(t *testing.T) {
	sim := broker.NewSim()
	sim.Deny = []broker.RecordType{broker.Steps}
	client := startTestDaemon(t, sim)

	req := broker.ReadRequest(broker.SleepSession, broker.Steps)
	grant, err := client.RequestPermission(context.Background(), req)
	if err != nil {
		t.Fatalf("RequestPermission() error = %v", err)
	}
	if !grant.Includes(broker.Read(broker.SleepSession)) {
		t.Error("grant missing sleep_session read pair")
	}
	if grant.Includes(broker.Read(broker.Steps)) {
		t.Error("grant contains denied steps pair")
	}
}

func TestDaemonRejectsEmptyRequest(t *testing.T) {
	client := startTestDaemon(t, broker.NewSim())

	_, err := client.RequestPermission(context.Background(), broker.NewRequest())
	if err == nil {
		t.Fatal("RequestPermission() with empty request succeeded, want error")
	}
}
