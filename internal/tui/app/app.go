// Package app provides the main TUI application that wires all views together.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pulsegate-dev/pulsegate/internal/broker"
	"github.com/pulsegate-dev/pulsegate/internal/config"
	"github.com/pulsegate-dev/pulsegate/internal/log"
	"github.com/pulsegate-dev/pulsegate/internal/orchestrator"
	"github.com/pulsegate-dev/pulsegate/internal/tui"
	"github.com/pulsegate-dev/pulsegate/internal/tui/commands"
	"github.com/pulsegate-dev/pulsegate/internal/tui/views"
)

const historyLimit = 20

// App is the main TUI application. It owns the orchestrator and routes its
// snapshot stream into the views.
type App struct {
	model  *tui.Model
	keys   tui.KeyMap
	ctrl   *orchestrator.Controller
	cancel context.CancelFunc

	// View models
	authorizeView views.AuthorizeModel
	historyView   views.HistoryModel

	// Last in-flight snapshot; terminal snapshots drop attempt bookkeeping.
	inflight orchestrator.Snapshot
	// Transitions observed during the current request cycle.
	trail []orchestrator.Snapshot
}

// New creates the App, its orchestrator, and the broker client the config
// selects. The orchestrator loop starts immediately; it stops when the user
// quits.
func New(cfg *config.Config, dir string) (*App, error) {
	logger, err := log.NewLogger(dir)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	client, err := brokerClient(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	ctrl := orchestrator.New(
		cfg.Policy.OrchestratorPolicy(),
		client,
		cfg.Permissions.Request(),
		cfg.Permissions.TargetPair(),
		logger,
	)
	go ctrl.Run(ctx)

	model := tui.NewModel(cfg, dir)

	return &App{
		model:         model,
		keys:          tui.DefaultKeyMap,
		ctrl:          ctrl,
		cancel:        cancel,
		authorizeView: views.NewAuthorizeModel(model.Width, model.Height),
		historyView:   views.NewHistoryModel(model.Width, model.Height),
	}, nil
}

// brokerClient mirrors the client selection in cli/client.go but adapted for
// TUI startup.
func brokerClient(ctx context.Context, cfg *config.Config) (broker.Client, error) {
	switch cfg.Broker.Mode {
	case "", "sim":
		return cfg.Broker.Sim.NewSim(), nil
	case "daemon":
		client := broker.NewHTTPClient(cfg.Broker.DaemonAddr)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("broker daemon at %s is not reachable: %w", cfg.Broker.DaemonAddr, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown broker mode %q (want sim or daemon)", cfg.Broker.Mode)
	}
}

// Init kicks off initialization and starts reading the snapshot stream.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.authorizeView.Init(),
		commands.WaitSnapshot(a.ctrl),
		commands.Initialize(a.ctrl),
		commands.LoadHistory(a.model.Dir, historyLimit),
	)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		var authorizeCmd, historyCmd tea.Cmd
		a.authorizeView, authorizeCmd = a.authorizeView.Update(msg)
		a.historyView, historyCmd = a.historyView.Update(msg)
		return a, tea.Batch(authorizeCmd, historyCmd)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.FocusMsg:
		return a, commands.SetActivity(a.ctrl, orchestrator.ActivityActive)

	case tea.BlurMsg:
		return a, commands.SetActivity(a.ctrl, orchestrator.ActivityBackground)

	case tui.SnapshotMsg:
		return a.handleSnapshot(msg)

	case tui.StreamClosedMsg:
		return a, tea.Quit

	case tui.AttemptRecordedMsg:
		return a, commands.LoadHistory(a.model.Dir, historyLimit)

	case tui.HistoryLoadedMsg, tui.HistoryErrorMsg:
		var cmd tea.Cmd
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.authorizeView, cmd = a.authorizeView.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.cancel()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Tab):
		if a.model.Tab == tui.TabAuthorize {
			a.model.Tab = tui.TabHistory
			return a, commands.LoadHistory(a.model.Dir, historyLimit)
		}
		a.model.Tab = tui.TabAuthorize
		return a, nil

	case key.Matches(msg, a.keys.Request):
		if a.model.Tab != tui.TabAuthorize {
			return a, nil
		}
		// The projection decides whether the button is pressable; the
		// orchestrator's own guard is what actually prevents overlap.
		if !orchestrator.Project(a.authorizeView.Snapshot()).ButtonEnabled {
			return a, nil
		}
		return a, commands.Request(a.ctrl)
	}

	return a, nil
}

func (a *App) handleSnapshot(msg tui.SnapshotMsg) (tea.Model, tea.Cmd) {
	snap := msg.Snapshot

	cmds := []tea.Cmd{commands.WaitSnapshot(a.ctrl)}

	var cmd tea.Cmd
	a.authorizeView, cmd = a.authorizeView.Update(msg)
	cmds = append(cmds, cmd)

	if snap.Phase == orchestrator.PhaseRequesting {
		a.inflight = snap
		a.trail = append(a.trail, snap)
	}

	// A request cycle just ended. Persist settled outcomes; a foreground
	// recovery back to Ready is not an outcome.
	if a.inflight.Phase == orchestrator.PhaseRequesting && snap.Phase != orchestrator.PhaseRequesting {
		if snap.Phase.Terminal() && a.model.Cfg.History.Enabled {
			a.trail = append(a.trail, snap)
			cmds = append(cmds, commands.RecordAttempt(a.model.Dir, snap, a.inflight, a.trail))
		}
		a.inflight = orchestrator.Snapshot{}
		a.trail = nil
	}

	return a, tea.Batch(cmds...)
}

// View renders the current application state.
func (a *App) View() string {
	var content string
	switch a.model.Tab {
	case tui.TabHistory:
		content = a.historyView.View()
	default:
		content = a.authorizeView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.renderTabBar(), content)
}

func (a *App) renderTabBar() string {
	tabs := []struct {
		tab   tui.Tab
		label string
	}{
		{tui.TabAuthorize, "Authorize"},
		{tui.TabHistory, "History"},
	}

	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.tab == a.model.Tab {
			parts = append(parts, tui.ActiveTabStyle.Render(t.label))
		} else {
			parts = append(parts, tui.InactiveTabStyle.Render(t.label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
