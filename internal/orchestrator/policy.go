package orchestrator

import "time"

// Policy holds the orchestrator's tunable constants. The broker's true
// readiness contract is undocumented; these values were settled empirically
// and are configuration, not protocol requirements.
type Policy struct {
	// InitSettle is the pause after a successful initialize before any
	// permission request is accepted. Mitigates a readiness race in the
	// broker's native session.
	InitSettle time.Duration

	// RequestSettle is the longer pause applied inside the request flow
	// after re-initialization, before the actual permission call.
	RequestSettle time.Duration

	// InitAttempts bounds the re-initialization loop inside the request
	// flow. The first initialize is known to sometimes leave the native
	// object silently unready.
	InitAttempts int

	// InitBackoff is the delay between re-initialization attempts.
	InitBackoff time.Duration

	// RequestAttempts bounds the permission call itself. A forced
	// re-initialization runs between attempts.
	RequestAttempts int

	// RequestBackoff is the delay between permission attempts.
	RequestBackoff time.Duration

	// RequestTimeout ends the wait on an unresolved permission request.
	// The underlying broker call is not canceled.
	RequestTimeout time.Duration

	// RecoveryGrace is the wait after a background-to-foreground transition
	// before force-clearing a still-unresolved request, giving a pending
	// broker callback a chance to land first.
	RecoveryGrace time.Duration
}

// DefaultPolicy returns the reference values from the latest field-tested
// revision of the protocol.
func DefaultPolicy() Policy {
	return Policy{
		InitSettle:      500 * time.Millisecond,
		RequestSettle:   2 * time.Second,
		InitAttempts:    3,
		InitBackoff:     time.Second,
		RequestAttempts: 2,
		RequestBackoff:  time.Second,
		RequestTimeout:  30 * time.Second,
		RecoveryGrace:   time.Second,
	}
}
