package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pulsegate-dev/pulsegate/internal/history"
	"github.com/pulsegate-dev/pulsegate/internal/tui"
)

// HistoryModel is the view model for the attempt history screen.
type HistoryModel struct {
	attempts []history.Summary
	err      error
	width    int
	height   int
}

// NewHistoryModel creates a new HistoryModel.
func NewHistoryModel(width, height int) HistoryModel {
	return HistoryModel{
		width:  width,
		height: height,
	}
}

// Update handles messages for the history view.
func (m HistoryModel) Update(msg tea.Msg) (HistoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.HistoryLoadedMsg:
		m.attempts = msg.Attempts
		m.err = nil
		return m, nil

	case tui.HistoryErrorMsg:
		m.err = msg.Err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// View renders the history screen.
func (m HistoryModel) View() string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Attempt History"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(tui.ErrorStyle.Render(fmt.Sprintf("History unavailable: %v", m.err)))
	case len(m.attempts) == 0:
		b.WriteString(tui.DimStyle.Render("No attempts recorded yet."))
	default:
		for _, att := range m.attempts {
			line := fmt.Sprintf("%s %s  %-9s  tries=%d",
				outcomeIcon(att.Outcome),
				att.FinishedAt.Format("2006-01-02 15:04"),
				att.Outcome,
				att.Tries,
			)
			if att.Reason != "" {
				line += "  " + tui.DimStyle.Render(att.Reason)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("tab authorize · q quit"))

	return tui.BoxStyle.Render(b.String())
}

func outcomeIcon(outcome string) string {
	switch outcome {
	case "granted":
		return tui.IconGranted
	case "denied":
		return tui.IconDenied
	case "timed_out":
		return tui.IconTimedOut
	default:
		return tui.IconFailed
	}
}
