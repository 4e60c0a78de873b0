// Package broker defines the external health-data broker capability and the
// data types exchanged with it. The broker itself is an opaque collaborator:
// pulsegate only consumes its status, initialization, and permission calls.
package broker

import (
	"context"
	"fmt"
	"strings"
)

// SdkStatus is the broker's availability signal. Values are ordered; anything
// below StatusUsableThreshold means the broker cannot be used at all.
type SdkStatus int

const (
	StatusNotInstalled SdkStatus = iota
	StatusUpdateRequired
	StatusUsable
)

// StatusUsableThreshold is the lowest SdkStatus at which the broker is usable.
const StatusUsableThreshold = StatusUsable

// Usable reports whether the status is at or above the usability threshold.
func (s SdkStatus) Usable() bool {
	return s >= StatusUsableThreshold
}

func (s SdkStatus) String() string {
	switch s {
	case StatusNotInstalled:
		return "not_installed"
	case StatusUpdateRequired:
		return "update_required"
	case StatusUsable:
		return "usable"
	default:
		return fmt.Sprintf("sdk_status(%d)", int(s))
	}
}

// AccessType is the kind of access requested for a record type.
// pulsegate only ever requests read access.
type AccessType string

const AccessRead AccessType = "read"

// RecordType identifies a health-data category held by the broker.
type RecordType string

const (
	HeartRate            RecordType = "heart_rate"
	HeartRateVariability RecordType = "heart_rate_variability"
	SleepSession         RecordType = "sleep_session"
	Steps                RecordType = "steps"
	RestingHeartRate     RecordType = "resting_heart_rate"
)

// Pair is a single (access, record) permission.
type Pair struct {
	Access AccessType `json:"access"`
	Record RecordType `json:"record"`
}

func (p Pair) String() string {
	return string(p.Record) + "/" + string(p.Access)
}

// Read returns the read pair for a record type.
func Read(r RecordType) Pair {
	return Pair{Access: AccessRead, Record: r}
}

// Request is an ordered, immutable set of permission pairs.
type Request struct {
	pairs []Pair
}

// NewRequest builds a Request from pairs, preserving order and dropping
// duplicates.
func NewRequest(pairs ...Pair) Request {
	seen := make(map[Pair]bool, len(pairs))
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return Request{pairs: out}
}

// ReadRequest builds a read-only Request covering the given record types.
func ReadRequest(records ...RecordType) Request {
	pairs := make([]Pair, len(records))
	for i, r := range records {
		pairs[i] = Read(r)
	}
	return NewRequest(pairs...)
}

// Pairs returns a copy of the requested pairs.
func (r Request) Pairs() []Pair {
	out := make([]Pair, len(r.pairs))
	copy(out, r.pairs)
	return out
}

// Len returns the number of requested pairs.
func (r Request) Len() int {
	return len(r.pairs)
}

func (r Request) String() string {
	parts := make([]string, len(r.pairs))
	for i, p := range r.pairs {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Grant is the set of pairs the broker actually granted. It is a subset of
// the request; containment of a specific pair is the only signal consumed.
type Grant struct {
	Pairs []Pair `json:"pairs"`
}

// Includes reports whether the grant contains the given pair.
func (g Grant) Includes(p Pair) bool {
	for _, got := range g.Pairs {
		if got == p {
			return true
		}
	}
	return false
}

// Client is the consumed broker capability. All calls are asynchronous from
// the caller's point of view and may take arbitrarily long; RequestPermission
// triggers external consent UI outside pulsegate's control.
type Client interface {
	// GetStatus polls the broker's availability. No side effects.
	GetStatus(ctx context.Context) (SdkStatus, error)

	// Initialize establishes the broker's native session. A false result
	// without an error means the broker declined without explanation. The
	// call is idempotent-ish but the first invocation is known to sometimes
	// leave the native object unready (see orchestrator retry policy).
	Initialize(ctx context.Context) (bool, error)

	// RequestPermission asks the broker to grant the requested pairs. The
	// returned grant is a subset of the request.
	RequestPermission(ctx context.Context, req Request) (Grant, error)
}
