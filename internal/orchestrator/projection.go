package orchestrator

import "fmt"

// NoticeLevel grades the advisory message attached to a projection.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeError
)

// Notice is a single advisory message for the display layer.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// Projection is the read-only view of the orchestrator state consumed by the
// presentation layer: one button and zero or one advisory message. The
// display owns nothing; it renders what it is given.
type Projection struct {
	ButtonLabel   string
	ButtonEnabled bool
	Notice        *Notice
}

// Project maps a snapshot to its presentation. Pure function; safe to call
// from any goroutine.
func Project(s Snapshot) Projection {
	switch s.Phase {
	case PhaseUninitialized:
		return Projection{ButtonLabel: "Preparing...", ButtonEnabled: false}

	case PhaseInitializing:
		return Projection{ButtonLabel: "Initializing broker...", ButtonEnabled: false}

	case PhaseReady:
		p := Projection{ButtonLabel: "Request sleep access", ButtonEnabled: true}
		if s.Notice != "" {
			p.Notice = &Notice{Level: NoticeInfo, Text: s.Notice}
		}
		return p

	case PhaseInitFailed:
		if s.Kind == KindEnvironment {
			return Projection{
				ButtonLabel:   "Broker unavailable",
				ButtonEnabled: false,
				Notice:        &Notice{Level: NoticeError, Text: s.Reason},
			}
		}
		return Projection{
			ButtonLabel:   "Try again",
			ButtonEnabled: true,
			Notice:        &Notice{Level: NoticeError, Text: s.Reason},
		}

	case PhaseRequesting:
		label := "Requesting access..."
		if s.Attempt > 1 {
			label = fmt.Sprintf("Requesting access... (attempt %d)", s.Attempt)
		}
		return Projection{ButtonLabel: label, ButtonEnabled: false}

	case PhaseGranted:
		return Projection{
			ButtonLabel:   "Request again",
			ButtonEnabled: true,
			Notice:        &Notice{Level: NoticeSuccess, Text: "Sleep access granted."},
		}

	case PhaseDenied:
		return Projection{
			ButtonLabel:   "Request sleep access",
			ButtonEnabled: true,
			Notice:        &Notice{Level: NoticeInfo, Text: "Sleep access was not granted. You can request it again."},
		}

	case PhaseTimedOut:
		return Projection{
			ButtonLabel:   "Try again",
			ButtonEnabled: true,
			Notice:        &Notice{Level: NoticeError, Text: "The broker did not respond in time."},
		}

	default:
		return Projection{ButtonLabel: "Unavailable", ButtonEnabled: false}
	}
}
