// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels back to the viewer
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// Controls carries user requests from the TUI back to the viewer
type Controls struct {
	CrossFade chan bool
	Reconnect chan struct{}
	Quit      chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		CrossFade: make(chan bool, 1),
		Reconnect: make(chan struct{}, 1),
		Quit:      make(chan struct{}, 1),
	}
}

func (c *Controls) quit() chan struct{} {
	if c == nil {
		return nil
	}
	return c.Quit
}

func (c *Controls) reconnect() chan struct{} {
	if c == nil {
		return nil
	}
	return c.Reconnect
}

// signal does a non-blocking send; a nil channel is ignored
func (c *Controls) signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls, source string, crossFade bool) Model {
	return Model{
		source:    source,
		state:     mjpeg.Disconnected,
		crossFade: crossFade,
		controls:  controls,
	}
}

// Run creates the TUI program; the caller runs it
func Run(controls *Controls, source string, crossFade bool) *tea.Program {
	return tea.NewProgram(NewModel(controls, source, crossFade), tea.WithAltScreen())
}
