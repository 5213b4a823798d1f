// ABOUTME: Shared fixtures for mjpeg tests
// ABOUTME: Builds small JPEG payloads and framed streams
package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// testJPEG encodes a solid w x h image.
func testJPEG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// headerFrame prefixes data with a Content-Length header block.
func headerFrame(data []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data))
	buf.Write(data)
	return buf.Bytes()
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)
