// ABOUTME: Frame demuxer for Motion-JPEG byte streams
// ABOUTME: Supports Content-Length headed frames and bare SOI/EOI delimited frames
package mjpeg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderMaxLength is the header allowance included in DefaultMaxFrameSize.
	HeaderMaxLength = 100
	// DefaultMaxFrameSize bounds one header plus one compressed image.
	DefaultMaxFrameSize = 40000 + HeaderMaxLength
)

var (
	// ErrMalformedHeader means a frame header had no usable Content-Length.
	ErrMalformedHeader = errors.New("mjpeg: malformed frame header")
	// ErrFrameTooLarge means no frame boundary was found within the size ceiling.
	ErrFrameTooLarge = errors.New("mjpeg: frame too large")
)

// IsDemuxError reports whether err only spoils the current frame. The
// stream stays usable and the next ReadFrame call resynchronizes.
func IsDemuxError(err error) bool {
	return errors.Is(err, ErrMalformedHeader) || errors.Is(err, ErrFrameTooLarge)
}

// Framing identifies how a frame was delimited in the stream.
type Framing int

const (
	// FramingHeader frames are preceded by a header carrying Content-Length.
	FramingHeader Framing = iota
	// FramingMarker frames are delimited by their own SOI/EOI markers.
	FramingMarker
)

func (f Framing) String() string {
	switch f {
	case FramingHeader:
		return "header"
	case FramingMarker:
		return "marker"
	default:
		return fmt.Sprintf("Framing(%d)", int(f))
	}
}

// Frame is one JPEG payload extracted from the stream.
type Frame struct {
	Data    []byte
	Framing Framing
	Header  Header // nil for marker framing
}

// DemuxerOption configures a Demuxer.
type DemuxerOption func(*Demuxer)

// WithMaxFrameSize sets the look-back bound and per-frame ceiling.
func WithMaxFrameSize(n int) DemuxerOption {
	return func(d *Demuxer) {
		if n > 0 {
			d.maxFrame = n
		}
	}
}

// Demuxer splits a byte stream into JPEG frames. It is not safe for
// concurrent use.
type Demuxer struct {
	r        *markReader
	maxFrame int
}

// NewDemuxer creates a demuxer reading from r.
func NewDemuxer(r io.Reader, opts ...DemuxerOption) *Demuxer {
	d := &Demuxer{maxFrame: DefaultMaxFrameSize}
	for _, opt := range opts {
		opt(d)
	}
	d.r = newMarkReader(r, d.maxFrame)
	return d
}

// MaxFrameSize returns the configured per-frame ceiling.
func (d *Demuxer) MaxFrameSize() int {
	return d.maxFrame
}

// ReadFrame returns the next frame.
//
// io.EOF is returned only when the stream ends on a frame boundary, where
// trailing blank lines, NUL padding and multipart boundary lines still count
// as a boundary. Ending inside a header line or image yields
// io.ErrUnexpectedEOF. ErrMalformedHeader and
// ErrFrameTooLarge skip the damaged frame and leave the stream positioned
// so the next call can continue.
func (d *Demuxer) ReadFrame() (*Frame, error) {
	d.r.Mark()

	headerLen, err := ScanStart(d.r, SOI, d.maxFrame)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) && onlyBoundary(d.r.Window()) {
			return nil, io.EOF
		}
		return nil, d.scanFailed(err)
	}
	d.r.Reset()

	switch {
	case headerLen > 0:
		return d.readHeaderFrame(headerLen)
	case headerLen == 0:
		return d.readMarkerFrame()
	default:
		// Neither a header nor an image start in the window; never guess a length.
		if err := d.r.Discard(d.maxFrame); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no start-of-image within %d bytes", ErrFrameTooLarge, d.maxFrame)
	}
}

func (d *Demuxer) readHeaderFrame(headerLen int) (*Frame, error) {
	raw := make([]byte, headerLen)
	if err := d.r.ReadFull(raw); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	header := ParseHeader(raw)
	contentLength, err := header.ContentLength()
	if err != nil {
		return nil, err
	}
	if contentLength > d.maxFrame {
		return nil, fmt.Errorf("%w: %s %d exceeds %d", ErrFrameTooLarge, ContentLengthKey, contentLength, d.maxFrame)
	}

	data := make([]byte, contentLength)
	if err := d.r.ReadFull(data); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return &Frame{Data: data, Framing: FramingHeader, Header: header}, nil
}

func (d *Demuxer) readMarkerFrame() (*Frame, error) {
	end, err := ScanEnd(d.r, EOI, d.maxFrame)
	if err != nil {
		return nil, d.scanFailed(err)
	}
	d.r.Reset()

	if end < 0 {
		if err := d.r.Discard(d.maxFrame); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no end-of-image within %d bytes", ErrFrameTooLarge, d.maxFrame)
	}

	data := make([]byte, end)
	if err := d.r.ReadFull(data); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}

	return &Frame{Data: data, Framing: FramingMarker}, nil
}

// onlyBoundary reports whether rest holds nothing but blank lines, NUL
// padding and "--" boundary lines.
func onlyBoundary(rest []byte) bool {
	for _, line := range bytes.Split(rest, []byte("\n")) {
		line = bytes.Trim(line, " \t\r\x00")
		if len(line) > 0 && !bytes.HasPrefix(line, []byte("--")) {
			return false
		}
	}
	return true
}

// scanFailed maps a read error seen while scanning.
func (d *Demuxer) scanFailed(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if errors.Is(err, ErrFrameTooLarge) {
		return err
	}
	return fmt.Errorf("scan frame: %w", err)
}
