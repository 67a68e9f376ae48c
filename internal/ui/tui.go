// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the decode player UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// VolumeChangeMsg carries a volume or mute change out of the TUI.
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// VolumeControl holds channels for volume control communication
type VolumeControl struct {
	Changes chan VolumeChangeMsg
}

// NewVolumeControl creates a new volume control handler
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{
		Changes: make(chan VolumeChangeMsg, 10),
	}
}

// Run creates the TUI program. The caller starts it with Run on its own
// goroutine and feeds it StatusMsg values with Send.
func Run(source string, volCtrl *VolumeControl) *tea.Program {
	return tea.NewProgram(NewModel(source, volCtrl), tea.WithAltScreen())
}
