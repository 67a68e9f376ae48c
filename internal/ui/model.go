// ABOUTME: Bubbletea model for the decode player TUI
// ABOUTME: Defines session display state and key handling
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	source string

	// Session
	state    string
	errText  string
	position time.Duration

	// Stream
	sampleRate int
	channels   int
	positions  []string

	// Playback
	volume int
	muted  bool

	// Stats
	delivered int64
	credits   int64

	volumeCtrl *VolumeControl

	// Dimensions
	width  int
	height int
}

// NewModel creates a new TUI model. volCtrl may be nil.
func NewModel(source string, volCtrl *VolumeControl) Model {
	return Model{
		source:     source,
		state:      "opening",
		volume:     100,
		volumeCtrl: volCtrl,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderStreamInfo())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderStats())
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	status := m.state
	if m.errText != "" {
		status = "error: " + m.errText
	}

	return fmt.Sprintf(`┌─ Resonate Decoder ───────────────────────────────────┐
│ Source: %-44s │
│ Status: %-44s │
├──────────────────────────────────────────────────────┤
`, truncate(m.source, 44), truncate(status, 44))
}

func (m Model) renderStreamInfo() string {
	if m.channels == 0 {
		return "│ Waiting for format                                   │\n"
	}

	s := fmt.Sprintf("│ Format: %dHz %-36s │\n", m.sampleRate, channelName(m.channels))
	s += fmt.Sprintf("│ Layout: %-44s │\n", truncate(strings.Join(m.positions, " "), 44))
	s += fmt.Sprintf("│ Position: %-42s │\n", formatPosition(m.position))
	return s
}

func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}

	return fmt.Sprintf("│ Volume: [%s] %3d%%%-25s │\n",
		renderBar(m.volume, 100, 10), m.volume, muteIcon)
}

func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Blocks: %-12d Credits: %-20d │
`, m.delivered, m.credits)
}

func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  q:Quit                           │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.volume = min(100, m.volume+5)
		m.sendVolume()
	case "down":
		m.volume = max(0, m.volume-5)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.volumeCtrl == nil {
		return
	}
	select {
	case m.volumeCtrl.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message. Zero fields are ignored.
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Err != "" {
		m.errText = msg.Err
	}
	if msg.Channels != 0 {
		m.channels = msg.Channels
		m.sampleRate = msg.SampleRate
		m.positions = msg.Positions
	}
	if msg.Position > m.position {
		m.position = msg.Position
	}
	if msg.Delivered != 0 {
		m.delivered = msg.Delivered
	}
	if msg.Credits != 0 {
		m.credits = msg.Credits
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	State      string
	Err        string
	SampleRate int
	Channels   int
	Positions  []string
	Position   time.Duration
	Delivered  int64
	Credits    int64
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	}
	return fmt.Sprintf("%d channels", channels)
}

func formatPosition(d time.Duration) string {
	d = d.Truncate(100 * time.Millisecond)
	return fmt.Sprintf("%d:%04.1f", int(d.Minutes()), (d % time.Minute).Seconds())
}
