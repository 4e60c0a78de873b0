// Package ui provides terminal UI components for pulsegate.
// This file implements the live phase line shown during a request.
package ui

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
)

// PhaseDisplay renders the orchestrator's current phase on a single
// live-updating terminal line. On non-TTY output it degrades to printing
// each phase transition once.
type PhaseDisplay struct {
	mu        sync.Mutex
	isTTY     bool
	drawn     bool
	lastPhase orchestrator.Phase
	started   time.Time
}

// NewPhaseDisplay creates a PhaseDisplay.
func NewPhaseDisplay() *PhaseDisplay {
	return &PhaseDisplay{
		isTTY:     term.IsTerminal(int(os.Stdout.Fd())),
		lastPhase: orchestrator.Phase(-1),
	}
}

// Update redraws the line for the given snapshot.
func (p *PhaseDisplay) Update(snap orchestrator.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Phase == orchestrator.PhaseRequesting && p.started.IsZero() {
		p.started = snap.StartedAt
	}

	line := p.render(snap)
	if p.isTTY {
		fmt.Printf("\r\033[K%s", line)
		p.drawn = true
		p.lastPhase = snap.Phase
		return
	}

	// Non-TTY: one line per phase change, no redraw.
	if snap.Phase != p.lastPhase {
		fmt.Println(line)
		p.lastPhase = snap.Phase
	}
}

// Finish terminates the live line so subsequent output starts clean.
func (p *PhaseDisplay) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isTTY && p.drawn {
		fmt.Print("\r\033[K")
		p.drawn = false
	}
}

func (p *PhaseDisplay) render(snap orchestrator.Snapshot) string {
	switch snap.Phase {
	case orchestrator.PhaseInitializing:
		return "Contacting the health broker..."
	case orchestrator.PhaseRequesting:
		line := fmt.Sprintf("Waiting for the broker (%s)", time.Since(snap.StartedAt).Round(time.Second))
		if snap.Attempt > 1 {
			line += fmt.Sprintf(", attempt %d", snap.Attempt)
		}
		return line
	default:
		return snap.Phase.String()
	}
}
