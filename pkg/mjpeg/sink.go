// ABOUTME: Render sink contract and decoded frame type
// ABOUTME: Carries decoded images to the consumer and back-pressure release
package mjpeg

import (
	"image"
	"sync"
	"time"
)

// DecodedFrame is one decoded image handed to a Sink.
type DecodedFrame struct {
	Seq       uint64
	Image     image.Image
	DecodedAt time.Time
	Framing   Framing
	Header    Header

	// Previous and Fade are set when cross-fade is enabled. Fade is the
	// wall-clock gap since the previous frame was decoded. Previous is nil
	// for the first frame of a session.
	Previous image.Image
	Fade     time.Duration

	once    sync.Once
	release func()
}

// Done acknowledges that the frame has been committed for display and lets
// the producer continue. Extra calls are ignored.
func (f *DecodedFrame) Done() {
	f.once.Do(func() {
		if f.release != nil {
			f.release()
		}
	})
}

// Sink consumes decoded frames. Render may dispatch to another goroutine
// but must eventually call f.Done exactly once; a sink that never does
// stalls playback.
type Sink interface {
	Render(f *DecodedFrame)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f *DecodedFrame)

func (fn SinkFunc) Render(f *DecodedFrame) { fn(f) }
