// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling, fades and previews
package ui

import (
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil, "http://cam/stream", false)

	if model.state != mjpeg.Disconnected {
		t.Errorf("expected disconnected, got %s", model.state)
	}
	if model.crossFade {
		t.Error("expected cross-fade to be off initially")
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
	if model.View() != "Loading..." {
		t.Error("expected loading view before first resize")
	}
}

func TestStatusMsg(t *testing.T) {
	model := NewModel(nil, "", false)

	state := mjpeg.Playing
	stats := mjpeg.Stats{Rendered: 10, Dropped: 2}
	model.applyStatus(StatusMsg{State: &state, SessionID: "abc", Source: "cam", Stats: &stats})

	if model.state != mjpeg.Playing {
		t.Errorf("expected playing, got %s", model.state)
	}
	if model.sessionID != "abc" || model.source != "cam" {
		t.Errorf("unexpected session/source: %s %s", model.sessionID, model.source)
	}
	if model.stats.Rendered != 10 {
		t.Errorf("expected 10 rendered, got %d", model.stats.Rendered)
	}

	perr := mjpeg.ConnectionLost
	model.applyStatus(StatusMsg{Error: &perr})
	if model.lastError != "connection lost" {
		t.Errorf("expected error text, got %q", model.lastError)
	}

	// A new connection attempt clears the error
	connecting := mjpeg.Connecting
	model.applyStatus(StatusMsg{State: &connecting})
	if model.lastError != "" {
		t.Errorf("expected error cleared, got %q", model.lastError)
	}
}

func TestHandleKeys(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls, "", false)

	updated, _ := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	model = updated.(Model)
	if !model.crossFade {
		t.Error("expected cross-fade on after f")
	}
	select {
	case on := <-controls.CrossFade:
		if !on {
			t.Error("expected true on cross-fade channel")
		}
	default:
		t.Error("expected cross-fade request")
	}

	updated, _ = model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	model = updated.(Model)
	select {
	case <-controls.Reconnect:
	default:
		t.Error("expected reconnect request")
	}

	updated, _ = model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	model = updated.(Model)
	if !model.showDebug {
		t.Error("expected debug on after d")
	}

	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command")
	}
	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit request")
	}
}

func TestHandleKeysWithoutControls(t *testing.T) {
	model := NewModel(nil, "", false)
	for _, key := range []string{"f", "r", "q"} {
		model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	}
}

func solid(w, h int, c color.Gray) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = c.Y
	}
	return img
}

func TestFrameWithoutFade(t *testing.T) {
	model := NewModel(nil, "", true)
	frame := &mjpeg.DecodedFrame{Image: solid(4, 4, color.Gray{Y: 255})}

	updated, cmd := model.applyFrame(FrameMsg{Frame: frame, Preview: "@@"}, time.Now())
	model = updated.(Model)
	if cmd != nil {
		t.Error("expected no fade tick for the first frame")
	}
	if model.preview != "@@" {
		t.Errorf("expected sink preview, got %q", model.preview)
	}
}

func TestFrameFade(t *testing.T) {
	model := NewModel(nil, "", true)
	model.width, model.height = 14, 20

	frame := &mjpeg.DecodedFrame{
		Image:    solid(4, 4, color.Gray{Y: 255}),
		Previous: solid(4, 4, color.Gray{Y: 0}),
		Fade:     100 * time.Millisecond,
	}

	start := time.Now()
	updated, cmd := model.applyFrame(FrameMsg{Frame: frame}, start)
	model = updated.(Model)
	if cmd == nil || model.fade == nil {
		t.Fatal("expected fade to start")
	}
	if strings.Trim(model.preview, " \n") != "" {
		t.Errorf("expected dark preview at fade start, got %q", model.preview)
	}

	updated, cmd = model.advanceFade(start.Add(50 * time.Millisecond))
	model = updated.(Model)
	if cmd == nil {
		t.Error("expected fade to continue")
	}

	updated, cmd = model.advanceFade(start.Add(200 * time.Millisecond))
	model = updated.(Model)
	if cmd != nil || model.fade != nil {
		t.Error("expected fade to finish")
	}
	if strings.Trim(model.preview, "@\n") != "" {
		t.Errorf("expected bright preview after fade, got %q", model.preview)
	}
}

func TestUpdateFPS(t *testing.T) {
	model := NewModel(nil, "", false)
	start := time.Now()
	model.updateFPS(start)

	model.stats.Rendered = 30
	model.updateFPS(start.Add(2 * time.Second))
	if model.fps != 15 {
		t.Errorf("expected 15 fps, got %f", model.fps)
	}
}

func TestPreview(t *testing.T) {
	out := Preview(solid(20, 10, color.Gray{Y: 255}), 10, 10)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows for a 2:1 image in 10 columns, got %d", len(lines))
	}
	for _, line := range lines {
		if line != strings.Repeat("@", 10) {
			t.Errorf("unexpected row %q", line)
		}
	}

	if Preview(nil, 10, 10) != "" {
		t.Error("expected empty preview for nil image")
	}
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func TestSinkReleasesFrame(t *testing.T) {
	sender := &recordingSender{}
	sink := NewSink(sender, 8, 8)

	frame := &mjpeg.DecodedFrame{Image: solid(8, 8, color.Gray{Y: 0})}
	sink.Render(frame)

	if len(sender.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.msgs))
	}
	msg, ok := sender.msgs[0].(FrameMsg)
	if !ok || msg.Frame != frame || msg.Preview == "" {
		t.Errorf("unexpected message %#v", sender.msgs[0])
	}
}

func TestListenerSendsStatus(t *testing.T) {
	sender := &recordingSender{}
	l := NewListener(sender, nil)

	l.OnStateChanged(mjpeg.Buffering)
	l.OnFrameRendered()
	l.OnPlaybackError(mjpeg.ServerUnreachable)

	if len(sender.msgs) != 2 {
		t.Fatalf("expected two messages, got %d", len(sender.msgs))
	}
	if st := sender.msgs[0].(StatusMsg).State; st == nil || *st != mjpeg.Buffering {
		t.Error("expected buffering state message")
	}
	if e := sender.msgs[1].(StatusMsg).Error; e == nil || *e != mjpeg.ServerUnreachable {
		t.Error("expected error message")
	}
}
