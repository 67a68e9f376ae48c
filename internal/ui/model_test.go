// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering helpers
package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func TestNewModel(t *testing.T) {
	model := NewModel("song.flac", nil)

	if model.state != "opening" {
		t.Errorf("expected initial state 'opening', got %q", model.state)
	}
	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.muted {
		t.Error("expected muted to be false initially")
	}
}

func TestStatusMsgFormat(t *testing.T) {
	model := NewModel("song.flac", nil)
	model.applyStatus(StatusMsg{
		State:      "playing",
		SampleRate: 48000,
		Channels:   2,
		Positions:  []string{"front-left", "front-right"},
	})

	if model.state != "playing" || model.sampleRate != 48000 || model.channels != 2 {
		t.Errorf("format not applied: %+v", model)
	}
	if diff := cmp.Diff([]string{"front-left", "front-right"}, model.positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusMsgZeroValuesIgnored(t *testing.T) {
	model := NewModel("song.flac", nil)
	model.applyStatus(StatusMsg{State: "playing", Delivered: 80, Credits: 2, Position: time.Second})
	model.applyStatus(StatusMsg{})

	if model.state != "playing" || model.delivered != 80 || model.credits != 2 {
		t.Errorf("zero status should not clear fields: %+v", model)
	}
	if model.position != time.Second {
		t.Errorf("position = %v, want 1s", model.position)
	}
}

func TestStatusMsgPositionOnlyAdvances(t *testing.T) {
	model := NewModel("song.flac", nil)
	model.applyStatus(StatusMsg{Position: 2 * time.Second})
	model.applyStatus(StatusMsg{Position: time.Second})

	if model.position != 2*time.Second {
		t.Errorf("position = %v, want 2s", model.position)
	}
}

func TestStatusMsgError(t *testing.T) {
	model := NewModel("song.flac", nil)
	model.width = 80
	model.applyStatus(StatusMsg{State: "error", Err: "invalid media format"})

	if !strings.Contains(model.View(), "error: invalid media format") {
		t.Errorf("view does not show the error:\n%s", model.View())
	}
}

func TestHandleKeyVolume(t *testing.T) {
	ctrl := NewVolumeControl()
	model := NewModel("song.flac", ctrl)

	next, _ := model.handleKey(tea.KeyMsg{Type: tea.KeyDown})
	model = next.(Model)
	if model.volume != 95 {
		t.Errorf("volume = %d, want 95", model.volume)
	}

	next, _ = model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	model = next.(Model)
	if !model.muted {
		t.Error("expected muted after 'm'")
	}

	want := []VolumeChangeMsg{{Volume: 95}, {Volume: 95, Muted: true}}
	var got []VolumeChangeMsg
	for len(ctrl.Changes) > 0 {
		got = append(got, <-ctrl.Changes)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("volume changes mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleKeyVolumeBounds(t *testing.T) {
	model := NewModel("song.flac", nil)
	next, _ := model.handleKey(tea.KeyMsg{Type: tea.KeyUp})
	if got := next.(Model).volume; got != 100 {
		t.Errorf("volume = %d, want 100", got)
	}
}

func TestHandleKeyQuit(t *testing.T) {
	model := NewModel("song.flac", NewVolumeControl())

	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected the command to quit the program")
	}
}

func TestViewBeforeResize(t *testing.T) {
	if got := NewModel("x", nil).View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestChannelNameFunction(t *testing.T) {
	tests := []struct {
		channels int
		expected string
	}{
		{1, "Mono"},
		{2, "Stereo"},
		{6, "6 channels"},
	}

	for _, tt := range tests {
		if result := channelName(tt.channels); result != tt.expected {
			t.Errorf("channelName(%d) = %q, expected %q", tt.channels, result, tt.expected)
		}
	}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00.0"},
		{1500 * time.Millisecond, "0:01.5"},
		{75*time.Second + 250*time.Millisecond, "1:15.2"},
	}
	for _, tt := range tests {
		if got := formatPosition(tt.d); got != tt.want {
			t.Errorf("formatPosition(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	if got := renderBar(50, 100, 4); got != "██░░" {
		t.Errorf("renderBar = %q", got)
	}
}
