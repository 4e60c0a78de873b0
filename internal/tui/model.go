package tui

import "github.com/pulsegate-dev/pulsegate/internal/config"

// Tab represents the active tab in the TUI.
type Tab int

const (
	TabAuthorize Tab = iota
	TabHistory
)

// Model holds shared TUI state that views read through the App.
type Model struct {
	Cfg *config.Config
	Dir string

	Width  int
	Height int

	Tab Tab
}

// NewModel creates the shared state with sensible pre-WindowSizeMsg defaults.
func NewModel(cfg *config.Config, dir string) *Model {
	return &Model{
		Cfg:    cfg,
		Dir:    dir,
		Width:  80,
		Height: 24,
	}
}
