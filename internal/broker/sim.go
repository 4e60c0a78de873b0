package broker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRequestFault is returned by Sim when a scripted request fault fires.
var ErrRequestFault = errors.New("broker: permission request fault")

// Sim is an in-process broker with tunable defect knobs. It reproduces the
// behaviours the orchestrator has to survive: an unusable install, the
// initialize-once-then-unready defect, transient request faults, and a
// consent screen that never calls back.
type Sim struct {
	mu sync.Mutex

	// Status reported by GetStatus.
	Status SdkStatus

	// InitDefects makes the first N Initialize calls return false without
	// an error, mimicking the silent-unready defect.
	InitDefects int

	// RequestFaults makes the first N RequestPermission calls fail with
	// ErrRequestFault.
	RequestFaults int

	// Latency is added to every call.
	Latency time.Duration

	// HangRequest makes RequestPermission block until the context is done,
	// as if the user never returned from the consent screen.
	HangRequest bool

	// Deny lists record types withheld from every grant.
	Deny []RecordType

	// Call counters, readable via Counts.
	statusCalls  int
	initCalls    int
	requestCalls int
}

// NewSim returns a usable, defect-free simulator.
func NewSim() *Sim {
	return &Sim{Status: StatusUsable}
}

// Counts returns how many status, initialize, and request calls were made.
func (s *Sim) Counts() (status, initialize, request int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls, s.initCalls, s.requestCalls
}

func (s *Sim) sleep(ctx context.Context) error {
	if s.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetStatus reports the configured status.
func (s *Sim) GetStatus(ctx context.Context) (SdkStatus, error) {
	if err := s.sleep(ctx); err != nil {
		return StatusNotInstalled, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCalls++
	return s.Status, nil
}

// Initialize succeeds unless a scripted defect is pending.
func (s *Sim) Initialize(ctx context.Context) (bool, error) {
	if err := s.sleep(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initCalls++
	if s.InitDefects > 0 {
		s.InitDefects--
		return false, nil
	}
	return true, nil
}

// RequestPermission grants everything requested except the denied record
// types. Scripted faults and the hang knob fire before any grant is built.
func (s *Sim) RequestPermission(ctx context.Context, req Request) (Grant, error) {
	if err := s.sleep(ctx); err != nil {
		return Grant{}, err
	}

	s.mu.Lock()
	s.requestCalls++
	hang := s.HangRequest
	fault := false
	if s.RequestFaults > 0 {
		s.RequestFaults--
		fault = true
	}
	denied := make(map[RecordType]bool, len(s.Deny))
	for _, r := range s.Deny {
		denied[r] = true
	}
	s.mu.Unlock()

	if fault {
		return Grant{}, ErrRequestFault
	}
	if hang {
		<-ctx.Done()
		return Grant{}, ctx.Err()
	}

	var g Grant
	for _, p := range req.Pairs() {
		if denied[p.Record] {
			continue
		}
		g.Pairs = append(g.Pairs, p)
	}
	return g, nil
}
