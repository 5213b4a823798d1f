// ABOUTME: Render sink that feeds decoded frames into the TUI
// ABOUTME: Converts frames to previews and acknowledges them to the player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// Sender is the part of *tea.Program the sink needs
type Sender interface {
	Send(msg tea.Msg)
}

// Sink implements mjpeg.Sink for the TUI
type Sink struct {
	sender        Sender
	width, height int
}

// NewSink creates a sink posting frames to sender
func NewSink(sender Sender, width, height int) *Sink {
	if width <= 0 {
		width = DefaultPreviewWidth
	}
	if height <= 0 {
		height = DefaultPreviewHeight
	}
	return &Sink{sender: sender, width: width, height: height}
}

// Render schedules the frame for display, then releases the player.
func (s *Sink) Render(f *mjpeg.DecodedFrame) {
	defer f.Done()
	s.sender.Send(FrameMsg{
		Frame:   f,
		Preview: Preview(f.Image, s.width, s.height),
	})
}

// Listener forwards player events to the TUI as status messages
type Listener struct {
	sender Sender
	player *mjpeg.Player
}

// NewListener creates a listener reporting player's events to sender
func NewListener(sender Sender, player *mjpeg.Player) *Listener {
	return &Listener{sender: sender, player: player}
}

func (l *Listener) OnStateChanged(state mjpeg.State) {
	msg := StatusMsg{State: &state}
	if l.player != nil {
		msg.SessionID = l.player.SessionID()
	}
	l.sender.Send(msg)
}

func (l *Listener) OnFrameRendered() {}

func (l *Listener) OnPlaybackError(err mjpeg.PlaybackError) {
	l.sender.Send(StatusMsg{Error: &err})
}
