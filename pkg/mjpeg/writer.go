// ABOUTME: Frame writer producing MJPEG byte streams
// ABOUTME: Emits multipart Content-Length framing or bare concatenated JPEGs
package mjpeg

import (
	"fmt"
	"io"
)

// DefaultBoundary is the multipart boundary used when none is configured.
const DefaultBoundary = "mjpegframe"

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithFraming selects header or marker framing (header is the default).
func WithFraming(f Framing) WriterOption {
	return func(w *Writer) { w.framing = f }
}

// WithBoundary sets the multipart boundary for header framing.
func WithBoundary(boundary string) WriterOption {
	return func(w *Writer) {
		if boundary != "" {
			w.boundary = boundary
		}
	}
}

// Writer writes JPEG images as an MJPEG stream that Demuxer can read back.
type Writer struct {
	w        io.Writer
	framing  Framing
	boundary string
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	fw := &Writer{w: w, framing: FramingHeader, boundary: DefaultBoundary}
	for _, opt := range opts {
		opt(fw)
	}
	return fw
}

// ContentType returns the HTTP content type of the produced stream.
func (w *Writer) ContentType() string {
	if w.framing == FramingMarker {
		return "image/jpeg"
	}
	return "multipart/x-mixed-replace; boundary=" + w.boundary
}

// WriteFrame writes one JPEG image.
func (w *Writer) WriteFrame(jpeg []byte) error {
	if w.framing == FramingMarker {
		if _, err := w.w.Write(jpeg); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		return nil
	}

	if _, err := fmt.Fprintf(w.w, "--%s\r\nContent-Type: image/jpeg\r\n%s: %d\r\n\r\n", w.boundary, ContentLengthKey, len(jpeg)); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.w.Write(jpeg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		return fmt.Errorf("write frame trailer: %w", err)
	}
	return nil
}
