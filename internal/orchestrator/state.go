// Package orchestrator implements the authorization state machine that
// coordinates with the external health-data broker: the initialization
// handshake, the bounded-retry permission protocol, and the lifecycle guard
// that keeps the machine from getting stuck on timeouts or lost callbacks.
package orchestrator

import (
	"time"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
)

// Phase is the tagged variant of the orchestrator state. Exactly one phase
// holds at any observation point; the phase resets to Uninitialized only on
// process restart.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseReady
	PhaseInitFailed
	PhaseRequesting
	PhaseGranted
	PhaseDenied
	PhaseTimedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseReady:
		return "ready"
	case PhaseInitFailed:
		return "init_failed"
	case PhaseRequesting:
		return "requesting"
	case PhaseGranted:
		return "granted"
	case PhaseDenied:
		return "denied"
	case PhaseTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends a request cycle.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseGranted, PhaseDenied, PhaseTimedOut, PhaseInitFailed:
		return true
	default:
		return false
	}
}

// Activity is the host application's activity-state signal.
type Activity int

const (
	ActivityActive Activity = iota
	ActivityInactive
	ActivityBackground
)

func (a Activity) String() string {
	switch a {
	case ActivityActive:
		return "active"
	case ActivityInactive:
		return "inactive"
	case ActivityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the orchestrator state, published to
// subscribers after every mutation.
type Snapshot struct {
	Phase     Phase
	Epoch     uint64
	Attempt   int       // current request attempt, set while requesting
	StartedAt time.Time // when the in-flight request began

	Reason string // failure message, preserved verbatim from the broker
	Kind   Kind   // failure classification for InitFailed

	Grant *broker.Grant // set on PhaseGranted

	Notice string // advisory text attached by the lifecycle guard
}
