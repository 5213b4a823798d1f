// ABOUTME: Tests for the frame demuxer
// ABOUTME: Covers both framings, resync after bad frames and end-of-stream handling
package mjpeg

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFrameHeaderFraming(t *testing.T) {
	img := testJPEG(t, 8, 8, red)
	d := NewDemuxer(bytes.NewReader(headerFrame(img)))

	frame, err := d.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, img, frame.Data)
	assert.Equal(t, FramingHeader, frame.Framing)
	assert.Equal(t, "image/jpeg", frame.Header.Get("Content-Type"))

	_, err = d.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameMarkerFraming(t *testing.T) {
	img := testJPEG(t, 8, 8, green)
	d := NewDemuxer(bytes.NewReader(concat(img, []byte("\r\n"))))

	frame, err := d.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, img, frame.Data)
	assert.Equal(t, FramingMarker, frame.Framing)
	assert.Nil(t, frame.Header)

	_, err = d.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameMixedFraming(t *testing.T) {
	a := testJPEG(t, 8, 8, red)
	b := testJPEG(t, 16, 8, blue)
	d := NewDemuxer(bytes.NewReader(concat(headerFrame(a), b, headerFrame(a))))

	var got [][]byte
	for {
		frame, err := d.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, frame.Data)
	}
	assert.Equal(t, [][]byte{a, b, a}, got)
}

func TestReadFrameMalformedHeaderResyncs(t *testing.T) {
	img := testJPEG(t, 8, 8, red)
	d := NewDemuxer(bytes.NewReader(concat([]byte("Content-Length: abc\r\n\r\n"), img)))

	_, err := d.ReadFrame()
	require.ErrorIs(t, err, ErrMalformedHeader)
	assert.True(t, IsDemuxError(err))

	frame, err := d.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, img, frame.Data)
	assert.Equal(t, FramingMarker, frame.Framing)
}

func TestReadFrameContentLengthTooLarge(t *testing.T) {
	d := NewDemuxer(bytes.NewReader([]byte("Content-Length: 1000\r\n\r\n\xff\xd8")), WithMaxFrameSize(64))

	_, err := d.ReadFrame()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Equal(t, 64, d.MaxFrameSize())
}

func TestReadFrameNoStartMarker(t *testing.T) {
	d := NewDemuxer(bytes.NewReader(make([]byte, 200)), WithMaxFrameSize(64))

	tooLarge := 0
	for {
		_, err := d.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		require.ErrorIs(t, err, ErrFrameTooLarge)
		tooLarge++
	}
	assert.Equal(t, 3, tooLarge)
}

func TestReadFrameNoEndMarker(t *testing.T) {
	data := concat(SOI, make([]byte, 100))
	d := NewDemuxer(bytes.NewReader(data), WithMaxFrameSize(64))

	_, err := d.ReadFrame()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestReadFrameUnexpectedEOF(t *testing.T) {
	img := testJPEG(t, 8, 8, red)

	tests := []struct {
		name  string
		input []byte
	}{
		{"mid header", []byte("Content-Type: image/jpeg\r\nContent-Length: 50\r\n")},
		{"mid payload", headerFrame(img)[:60]},
		{"mid marker frame", img[:len(img)-4]},
		{"header cut before colon", concat(headerFrame(img), []byte("Content-Len"))},
		{"garbage after frame", concat(img, []byte("xyz"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDemuxer(bytes.NewReader(tt.input))
			var err error
			for err == nil {
				_, err = d.ReadFrame()
			}
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			assert.False(t, IsDemuxError(err))
		})
	}
}

func TestReadFrameBoundaryTrailerIsCleanEOF(t *testing.T) {
	img := testJPEG(t, 8, 8, red)

	tests := []struct {
		name    string
		trailer string
	}{
		{"nothing", ""},
		{"crlf", "\r\n"},
		{"closing boundary", "--mjpegframe--\r\n"},
		{"partial boundary", "\r\n--mjpegfr"},
		{"nul padding", "\x00\x00\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDemuxer(bytes.NewReader(concat(headerFrame(img), []byte(tt.trailer))))

			frame, err := d.ReadFrame()
			require.NoError(t, err)
			assert.Equal(t, img, frame.Data)

			_, err = d.ReadFrame()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestReadFrameEmptyStream(t *testing.T) {
	_, err := NewDemuxer(bytes.NewReader(nil)).ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestReadFrameIOError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := NewDemuxer(errReader{boom}).ReadFrame()
	assert.ErrorIs(t, err, boom)
}
