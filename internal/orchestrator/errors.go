package orchestrator

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers and the projection can decide whether
// the user can retry or has to act outside the app.
type Kind int

const (
	// KindUnknown covers anything not classified below. Never swallowed.
	KindUnknown Kind = iota

	// KindEnvironment means the broker is not installed or not usable.
	// Fatal for the attempt; never retried; the user must act externally.
	KindEnvironment

	// KindTransientInit means initialize returned false or threw. Retried
	// up to the policy bound; exhaustion escalates to a fatal error.
	KindTransientInit

	// KindTransientPermission means the permission call threw. Retried up
	// to the policy bound with a forced re-initialization between attempts.
	KindTransientPermission

	// KindTimeout is a local policy decision, not a broker fault: the wait
	// ended without canceling the underlying call.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindTransientInit:
		return "transient_init"
	case KindTransientPermission:
		return "transient_permission"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a classified orchestrator failure. The underlying broker message
// is preserved verbatim for display.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func classified(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// ClassifyKind extracts the Kind from an error, defaulting to KindUnknown.
func ClassifyKind(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
