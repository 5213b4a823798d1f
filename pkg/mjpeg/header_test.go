// ABOUTME: Tests for frame header parsing
// ABOUTME: Covers separators, boundary lines and Content-Length validation
package mjpeg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	h := ParseHeader([]byte("\r\n--mjpegframe\r\ncontent-type: image/jpeg\r\ncontent-length=1234\r\nX-Timestamp: 10:20\r\n\r\n"))

	assert.Equal(t, "image/jpeg", h.Get("Content-Type"))
	assert.Equal(t, "10:20", h.Get("x-timestamp"))
	assert.Len(t, h, 3)

	n, err := h.ContentLength()
	require.NoError(t, err)
	assert.Equal(t, 1234, n)
}

func TestHeaderContentLengthErrors(t *testing.T) {
	for _, raw := range []string{
		"Content-Type: image/jpeg\r\n",
		"Content-Length: abc\r\n",
		"Content-Length: -5\r\n",
	} {
		_, err := ParseHeader([]byte(raw)).ContentLength()
		if !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("%q: expected ErrMalformedHeader, got %v", raw, err)
		}
	}
}
