// ABOUTME: Server TUI for displaying connected viewers and stream stats
// ABOUTME: Real-time server status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ServerTUI manages the server TUI
type ServerTUI struct {
	mu       sync.Mutex
	program  *tea.Program
	stopped  bool
	updates  chan ServerStatus
	quitChan chan struct{} // Signal to stop the server
}

// ServerStatus holds server state for TUI
type ServerStatus struct {
	Name       string
	Port       int
	Source     string
	FPS        int
	FramesSent uint64
	Clients    []ClientInfo
}

// ClientInfo holds client information for display
type ClientInfo struct {
	ID        string
	Remote    string
	Transport string
	Sent      uint64
	Skipped   uint64
	Connected time.Duration
}

type tuiModel struct {
	status    ServerStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg ServerStatus

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = ServerStatus(msg)
		return m, nil
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	clientHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))
)

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down server...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("MJPEG Test Server"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Server", m.status.Name)
	field("Port", fmt.Sprintf("%d", m.status.Port))
	field("Uptime", time.Since(m.startTime).Round(time.Second).String())
	field("Source", m.status.Source)
	field("Frames", fmt.Sprintf("%d @ %d fps", m.status.FramesSent, m.status.FPS))
	b.WriteString("\n")

	b.WriteString(clientHeaderStyle.Render(fmt.Sprintf("Connected Viewers (%d)", len(m.status.Clients))))
	b.WriteString("\n\n")

	if len(m.status.Clients) == 0 {
		b.WriteString(valueStyle.Render("  No viewers connected"))
		b.WriteString("\n")
	}
	for _, client := range m.status.Clients {
		b.WriteString(fmt.Sprintf("  • %s", client.Remote))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" (%s, sent %d, skipped %d, %s)",
			client.Transport, client.Sent, client.Skipped, client.Connected.Round(time.Second))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// NewServerTUI creates a new server TUI
func NewServerTUI() *ServerTUI {
	return &ServerTUI{
		updates:  make(chan ServerStatus, 10),
		quitChan: make(chan struct{}, 1),
	}
}

// Start runs the TUI until it quits
func (t *ServerTUI) Start(initial ServerStatus) error {
	m := tuiModel{
		status:    initial,
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	program := tea.NewProgram(m, tea.WithAltScreen())

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.program = program
	t.mu.Unlock()

	go func() {
		for status := range t.updates {
			program.Send(statusMsg(status))
		}
	}()

	_, err := program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *ServerTUI) Update(status ServerStatus) {
	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop stops the TUI
func (t *ServerTUI) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	if t.program != nil {
		t.program.Quit()
	}
	close(t.updates)
}

// QuitChan returns the channel that signals when user wants to quit
func (t *ServerTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
