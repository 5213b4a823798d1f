// ABOUTME: Listener registry for playback events
// ABOUTME: Fans out state, frame and error events to registered observers
package mjpeg

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Listener receives playback events. Callbacks run synchronously on the
// producer or error goroutine and should return quickly.
type Listener interface {
	OnStateChanged(state State)
	OnFrameRendered()
	OnPlaybackError(err PlaybackError)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
// Register it by pointer so RemoveListener can find it again.
type ListenerFuncs struct {
	StateChanged  func(State)
	FrameRendered func()
	PlaybackError func(PlaybackError)
}

func (l *ListenerFuncs) OnStateChanged(state State) {
	if l.StateChanged != nil {
		l.StateChanged(state)
	}
}

func (l *ListenerFuncs) OnFrameRendered() {
	if l.FrameRendered != nil {
		l.FrameRendered()
	}
}

func (l *ListenerFuncs) OnPlaybackError(err PlaybackError) {
	if l.PlaybackError != nil {
		l.PlaybackError(err)
	}
}

// listeners is an insertion-ordered set. Notifications iterate a snapshot
// taken under the lock and call out without holding it, so listeners may
// add or remove listeners from inside a callback.
type listeners struct {
	mu   sync.Mutex
	list []Listener
	log  zerolog.Logger
}

func (r *listeners) add(l Listener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.list = append(r.list, l)
	r.mu.Unlock()
}

func (r *listeners) remove(l Listener) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.list {
		if existing == l {
			r.list = append(r.list[:i:i], r.list[i+1:]...)
			return true
		}
	}
	return false
}

func (r *listeners) clear() {
	r.mu.Lock()
	r.list = nil
	r.mu.Unlock()
}

func (r *listeners) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list)
}

func (r *listeners) snapshot() []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list
}

func (r *listeners) notifyStateChanged(state State) {
	for _, l := range r.snapshot() {
		r.call("state_changed", func() { l.OnStateChanged(state) })
	}
}

func (r *listeners) notifyFrameRendered() {
	for _, l := range r.snapshot() {
		r.call("frame_rendered", l.OnFrameRendered)
	}
}

func (r *listeners) notifyError(err PlaybackError) {
	for _, l := range r.snapshot() {
		r.call("playback_error", func() { l.OnPlaybackError(err) })
	}
}

// call isolates one listener so a panic does not starve the rest.
func (r *listeners) call(event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().
				Str("event", event).
				Str("panic", fmt.Sprint(rec)).
				Msg("Listener panicked")
		}
	}()
	fn()
}
