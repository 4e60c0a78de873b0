// Package views provides TUI view components for the pulsegate application.
package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
	"github.com/pulsegate-dev/pulsegate/internal/tui"
)

// AuthorizeModel is the view model for the authorization screen. It renders
// whatever the orchestrator's projection says; it holds no authorization
// logic of its own.
type AuthorizeModel struct {
	snapshot orchestrator.Snapshot
	spinner  spinner.Model
	width    int
	height   int
}

// NewAuthorizeModel creates a new AuthorizeModel.
func NewAuthorizeModel(width, height int) AuthorizeModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.WarningStyle

	return AuthorizeModel{
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command for the authorize view.
func (m AuthorizeModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the authorize view.
func (m AuthorizeModel) Update(msg tea.Msg) (AuthorizeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SnapshotMsg:
		m.snapshot = msg.Snapshot
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// Snapshot returns the last snapshot this view rendered.
func (m AuthorizeModel) Snapshot() orchestrator.Snapshot {
	return m.snapshot
}

// View renders the authorize screen.
func (m AuthorizeModel) View() string {
	proj := orchestrator.Project(m.snapshot)

	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Sleep Access"))
	b.WriteString("\n\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if proj.ButtonEnabled {
		b.WriteString(tui.ButtonStyle.Render(proj.ButtonLabel))
	} else {
		b.WriteString(tui.ButtonDisabledStyle.Render(proj.ButtonLabel))
	}
	b.WriteString("\n")

	if proj.Notice != nil {
		b.WriteString("\n")
		b.WriteString(styleForNotice(proj.Notice.Level).Render(proj.Notice.Text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("enter request · tab history · q quit"))

	return tui.BoxStyle.Render(b.String())
}

func (m AuthorizeModel) statusLine() string {
	s := m.snapshot
	switch s.Phase {
	case orchestrator.PhaseInitializing:
		return fmt.Sprintf("%s Contacting the health broker...", m.spinner.View())

	case orchestrator.PhaseRequesting:
		elapsed := time.Since(s.StartedAt).Round(time.Second)
		line := fmt.Sprintf("%s Waiting for the broker (%s)", m.spinner.View(), elapsed)
		if s.Attempt > 1 {
			line += fmt.Sprintf(" · attempt %d", s.Attempt)
		}
		return line

	case orchestrator.PhaseGranted:
		return tui.IconGranted + " Access granted"

	case orchestrator.PhaseDenied:
		return tui.IconDenied + " Access not granted"

	case orchestrator.PhaseTimedOut:
		return tui.IconTimedOut + " No answer from the broker"

	case orchestrator.PhaseInitFailed:
		return tui.IconFailed + " Broker error"

	default:
		return tui.DimStyle.Render("Phase: " + s.Phase.String())
	}
}

func styleForNotice(level orchestrator.NoticeLevel) interface{ Render(...string) string } {
	switch level {
	case orchestrator.NoticeSuccess:
		return tui.SuccessStyle
	case orchestrator.NoticeError:
		return tui.ErrorStyle
	default:
		return tui.DimStyle
	}
}
