// ABOUTME: Bubbletea model for the viewer TUI
// ABOUTME: Defines viewer state, key handling and cross-fade animation
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

const (
	fadeInterval  = 33 * time.Millisecond
	statsInterval = time.Second
)

// Model represents the TUI state
type Model struct {
	// Connection
	source    string
	state     mjpeg.State
	sessionID string
	lastError string

	// Playback
	crossFade bool
	preview   string
	fade      *fadeState

	// Stats
	stats        mjpeg.Stats
	lastRendered int64
	lastTick     time.Time
	fps          float64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int

	controls *Controls
}

// fadeState tracks an in-progress cross-fade
type fadeState struct {
	frame *mjpeg.DecodedFrame
	start time.Time
}

type statsTickMsg time.Time
type fadeTickMsg time.Time

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return statsTick()
}

func statsTick() tea.Cmd {
	return tea.Tick(statsInterval, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func fadeTick() tea.Cmd {
	return tea.Tick(fadeInterval, func(t time.Time) tea.Msg {
		return fadeTickMsg(t)
	})
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
	case FrameMsg:
		return m.applyFrame(msg, time.Now())
	case fadeTickMsg:
		return m.advanceFade(time.Time(msg))
	case statsTickMsg:
		m.updateFPS(time.Time(msg))
		return m, statsTick()
	}

	return m, nil
}

// applyFrame shows a new frame, starting a fade when the frame carries one
func (m Model) applyFrame(msg FrameMsg, now time.Time) (tea.Model, tea.Cmd) {
	f := msg.Frame
	if m.crossFade && f != nil && f.Previous != nil && f.Fade > 0 {
		m.fade = &fadeState{frame: f, start: now}
		m.preview = Preview(f.Blend(0), m.previewWidth(), m.previewHeight())
		return m, fadeTick()
	}

	m.fade = nil
	m.preview = msg.Preview
	return m, nil
}

// advanceFade re-renders the blend until the fade has elapsed
func (m Model) advanceFade(now time.Time) (tea.Model, tea.Cmd) {
	if m.fade == nil {
		return m, nil
	}

	progress := m.fade.frame.FadeProgress(now.Sub(m.fade.start))
	m.preview = Preview(m.fade.frame.Blend(progress), m.previewWidth(), m.previewHeight())
	if progress >= 1 {
		m.fade = nil
		return m, nil
	}
	return m, fadeTick()
}

func (m *Model) updateFPS(now time.Time) {
	if !m.lastTick.IsZero() {
		if elapsed := now.Sub(m.lastTick).Seconds(); elapsed > 0 {
			m.fps = float64(m.stats.Rendered-m.lastRendered) / elapsed
		}
	}
	m.lastTick = now
	m.lastRendered = m.stats.Rendered
}

func (m Model) previewWidth() int {
	if m.width > 4 {
		return m.width - 4
	}
	return DefaultPreviewWidth
}

func (m Model) previewHeight() int {
	if m.height > 14 {
		return m.height - 14
	}
	return DefaultPreviewHeight
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("MJPEG Viewer"))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString(m.renderStats())
	b.WriteString("\n")

	if m.preview != "" {
		b.WriteString(m.preview)
	} else {
		b.WriteString(faintStyle.Render("  (no frame)"))
	}
	b.WriteString("\n")

	if m.showDebug {
		b.WriteString(m.renderDebug())
	}

	b.WriteString(faintStyle.Render("f:Cross-fade  r:Reconnect  d:Debug  q:Quit"))
	return b.String()
}

// renderStatus renders source, state and error
func (m Model) renderStatus() string {
	fade := "off"
	if m.crossFade {
		fade = "on"
	}

	s := field("Source", m.source)
	s += field("State", m.state.String())
	s += field("Cross-fade", fade)
	if m.lastError != "" {
		s += headerStyle.Render("Error: ") + errorStyle.Render(m.lastError) + "\n"
	}
	return s
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return field("Frames", fmt.Sprintf("%d rendered, %d dropped, %.1f fps",
		m.stats.Rendered, m.stats.Dropped, m.fps))
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	return field("Session", m.sessionID) +
		field("Counters", fmt.Sprintf("rx=%d demux_errors=%d errors=%d sessions=%d",
			m.stats.Received, m.stats.DemuxErrors, m.stats.Errors, m.stats.Sessions))
}

func field(name, value string) string {
	return headerStyle.Render(name+": ") + valueStyle.Render(value) + "\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.signal(m.controls.quit())
		return m, tea.Quit
	case "f":
		m.crossFade = !m.crossFade
		if !m.crossFade {
			m.fade = nil
		}
		if m.controls != nil {
			select {
			case m.controls.CrossFade <- m.crossFade:
			default:
			}
		}
	case "r":
		m.controls.signal(m.controls.reconnect())
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != nil {
		m.state = *msg.State
		if *msg.State == mjpeg.Connecting {
			m.lastError = ""
		}
	}
	if msg.SessionID != "" {
		m.sessionID = msg.SessionID
	}
	if msg.Source != "" {
		m.source = msg.Source
	}
	if msg.Error != nil {
		m.lastError = msg.Error.String()
	}
	if msg.Stats != nil {
		m.stats = *msg.Stats
	}
	if msg.CrossFade != nil {
		m.crossFade = *msg.CrossFade
	}
}

// StatusMsg updates TUI state; nil and empty fields are left unchanged
type StatusMsg struct {
	State     *mjpeg.State
	SessionID string
	Source    string
	Error     *mjpeg.PlaybackError
	Stats     *mjpeg.Stats
	CrossFade *bool
}

// FrameMsg carries a rendered frame and its text preview
type FrameMsg struct {
	Frame   *mjpeg.DecodedFrame
	Preview string
}
