// ABOUTME: Grayscale text rendering of frames for the terminal
// ABOUTME: Scales an image to a character grid and maps luminance to glyphs
package ui

import (
	"image"
	"strings"

	"golang.org/x/image/draw"
)

const (
	DefaultPreviewWidth  = 64
	DefaultPreviewHeight = 24
)

// ramp runs from dark to light
const ramp = " .:-=+*#%@"

// Preview renders img as width x height characters. Terminal cells are
// roughly twice as tall as wide, so the image is sampled accordingly.
func Preview(img image.Image, width, height int) string {
	if img == nil || width <= 0 || height <= 0 {
		return ""
	}

	b := img.Bounds()
	if b.Empty() {
		return ""
	}

	// Keep aspect ratio within the character box.
	w, h := width, height
	aspect := float64(b.Dy()) / float64(b.Dx()) / 2
	if fit := int(float64(w) * aspect); fit < h {
		h = max(fit, 1)
	} else {
		w = max(int(float64(h)/aspect), 1)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)

	var sb strings.Builder
	sb.Grow((w + 1) * h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for _, v := range row {
			sb.WriteByte(ramp[int(v)*(len(ramp)-1)/255])
		}
		if y < h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
