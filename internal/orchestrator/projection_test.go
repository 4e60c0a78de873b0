package orchestrator

import (
	"strings"
	"testing"
)

func TestProjectDisablesButtonWhileBusy(t *testing.T) {
	for _, phase := range []Phase{PhaseUninitialized, PhaseInitializing, PhaseRequesting} {
		p := Project(Snapshot{Phase: phase})
		if p.ButtonEnabled {
			t.Errorf("Project(%v).ButtonEnabled = true, want false", phase)
		}
	}
}

func TestProjectEnablesButtonWhenActionable(t *testing.T) {
	for _, phase := range []Phase{PhaseReady, PhaseGranted, PhaseDenied, PhaseTimedOut} {
		p := Project(Snapshot{Phase: phase})
		if !p.ButtonEnabled {
			t.Errorf("Project(%v).ButtonEnabled = false, want true", phase)
		}
	}
}

func TestProjectEnvironmentFailureIsDeadEnd(t *testing.T) {
	p := Project(Snapshot{Phase: PhaseInitFailed, Kind: KindEnvironment, Reason: "not installed"})
	if p.ButtonEnabled {
		t.Error("environment failure leaves the button enabled")
	}
	if p.Notice == nil || p.Notice.Level != NoticeError {
		t.Errorf("Notice = %+v, want error-level notice", p.Notice)
	}
	if p.Notice.Text != "not installed" {
		t.Errorf("Notice.Text = %q, want the broker reason verbatim", p.Notice.Text)
	}
}

func TestProjectTransientFailureOffersRetry(t *testing.T) {
	p := Project(Snapshot{Phase: PhaseInitFailed, Kind: KindTransientPermission, Reason: "boom"})
	if !p.ButtonEnabled {
		t.Error("transient failure disables the button")
	}
	if p.ButtonLabel != "Try again" {
		t.Errorf("ButtonLabel = %q, want %q", p.ButtonLabel, "Try again")
	}
}

func TestProjectRequestingShowsAttempt(t *testing.T) {
	p := Project(Snapshot{Phase: PhaseRequesting, Attempt: 1})
	if strings.Contains(p.ButtonLabel, "attempt") {
		t.Errorf("ButtonLabel = %q, first attempt should not be numbered", p.ButtonLabel)
	}

	p = Project(Snapshot{Phase: PhaseRequesting, Attempt: 2})
	if !strings.Contains(p.ButtonLabel, "attempt 2") {
		t.Errorf("ButtonLabel = %q, want attempt counter", p.ButtonLabel)
	}
}

func TestProjectRecoveryNoticeSurfaces(t *testing.T) {
	p := Project(Snapshot{Phase: PhaseReady, Notice: "No response from the broker after returning. Try again."})
	if p.Notice == nil || p.Notice.Level != NoticeInfo {
		t.Fatalf("Notice = %+v, want info notice", p.Notice)
	}
	if !p.ButtonEnabled {
		t.Error("recovered ready state disables the button")
	}
}

func TestProjectGrantedAllowsReRequest(t *testing.T) {
	p := Project(Snapshot{Phase: PhaseGranted})
	if !p.ButtonEnabled {
		t.Error("granted state disables the button")
	}
	if p.Notice == nil || p.Notice.Level != NoticeSuccess {
		t.Errorf("Notice = %+v, want success notice", p.Notice)
	}
}
