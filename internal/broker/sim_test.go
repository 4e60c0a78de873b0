package broker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimInitDefectsExpire(t *testing.T) {
	sim := NewSim()
	sim.InitDefects = 2

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := sim.Initialize(ctx)
		if err != nil || ok {
			t.Fatalf("Initialize() #%d = (%v, %v), want (false, nil)", i+1, ok, err)
		}
	}
	ok, err := sim.Initialize(ctx)
	if err != nil || !ok {
		t.Fatalf("Initialize() after defects = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestSimRequestFault(t *testing.T) {
	sim := NewSim()
	sim.RequestFaults = 1

	_, err := sim.RequestPermission(context.Background(), ReadRequest(SleepSession))
	if !errors.Is(err, ErrRequestFault) {
		t.Fatalf("error = %v, want ErrRequestFault", err)
	}

	grant, err := sim.RequestPermission(context.Background(), ReadRequest(SleepSession))
	if err != nil {
		t.Fatalf("RequestPermission() error = %v", err)
	}
	if !grant.Includes(Read(SleepSession)) {
		t.Error("grant missing requested pair after fault expired")
	}
}

func TestSimDenyWithholdsRecords(t *testing.T) {
	sim := NewSim()
	sim.Deny = []RecordType{HeartRate}

	grant, err := sim.RequestPermission(context.Background(), ReadRequest(HeartRate, SleepSession))
	if err != nil {
		t.Fatalf("RequestPermission() error = %v", err)
	}
	if grant.Includes(Read(HeartRate)) {
		t.Error("grant contains denied record")
	}
	if !grant.Includes(Read(SleepSession)) {
		t.Error("grant missing allowed record")
	}
}

func TestSimHangRequestHonorsContext(t *testing.T) {
	sim := NewSim()
	sim.HangRequest = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sim.RequestPermission(ctx, ReadRequest(SleepSession))
	if err == nil {
		t.Fatal("hung request returned without error")
	}
	if time.Since(start) > time.Second {
		t.Error("hung request did not unblock on context cancellation")
	}
}
