// ABOUTME: Bounded look-back reader used by the demuxer
// ABOUTME: Provides mark/reset over a bufio.Reader sized to one frame
package mjpeg

import (
	"bufio"
	"errors"
	"io"
)

// markReader reads ahead of the underlying bufio.Reader without consuming,
// so a scan can be rewound. Look-back is bounded by the buffer size.
type markReader struct {
	br  *bufio.Reader
	off int // bytes read since the mark
}

func newMarkReader(r io.Reader, size int) *markReader {
	return &markReader{br: bufio.NewReaderSize(r, size)}
}

// ReadByte returns the next byte after the mark without consuming it.
func (m *markReader) ReadByte() (byte, error) {
	buf, err := m.br.Peek(m.off + 1)
	if len(buf) <= m.off {
		if errors.Is(err, bufio.ErrBufferFull) {
			return 0, ErrFrameTooLarge
		}
		if errors.Is(err, io.EOF) && m.off > 0 {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	c := buf[m.off]
	m.off++
	return c, nil
}

// Mark starts a new look-back window at the current position.
func (m *markReader) Mark() { m.off = 0 }

// Reset rewinds to the mark.
func (m *markReader) Reset() { m.off = 0 }

// Window returns the bytes read since the mark without consuming them.
func (m *markReader) Window() []byte {
	b, _ := m.br.Peek(m.off)
	return b
}

// Discard consumes n bytes and re-marks at the new position.
func (m *markReader) Discard(n int) error {
	m.off = 0
	if n <= 0 {
		return nil
	}
	if _, err := m.br.Discard(n); err != nil {
		return unexpected(err)
	}
	return nil
}

// ReadFull consumes exactly len(p) bytes.
func (m *markReader) ReadFull(p []byte) error {
	m.off = 0
	if _, err := io.ReadFull(m.br, p); err != nil {
		return unexpected(err)
	}
	return nil
}

// unexpected turns a bare EOF inside a frame into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
