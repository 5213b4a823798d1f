// ABOUTME: Cross-fade timing and compositing between consecutive frames
// ABOUTME: Tracks decode gaps and blends previous and current images
package mjpeg

import (
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
)

// crossFader tracks the previous frame for cross-fade timing.
type crossFader struct {
	prev     image.Image
	prevTime time.Time
}

// next computes the fade for img decoded at now. ok is false when the
// clock went backwards; the caller skips that frame and the previous
// timestamp is left untouched.
func (c *crossFader) next(img image.Image, now time.Time) (prev image.Image, fade time.Duration, ok bool) {
	if c.prev != nil {
		fade = now.Sub(c.prevTime)
		if fade < 0 {
			return nil, 0, false
		}
	}
	prev = c.prev
	c.prev, c.prevTime = img, now
	return prev, fade, true
}

// mark records img as the previous frame without computing a fade.
func (c *crossFader) mark(img image.Image, now time.Time) {
	c.prev, c.prevTime = img, now
}

// Blend composites Previous and Image at progress in [0,1], where 0 is the
// previous image and 1 the current one. Without a previous image, or at
// progress >= 1, the current image is returned as is.
func (f *DecodedFrame) Blend(progress float64) image.Image {
	if f.Previous == nil || progress >= 1 {
		return f.Image
	}
	if progress < 0 {
		progress = 0
	}

	b := f.Image.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), f.Previous, f.Previous.Bounds(), draw.Src, nil)

	mask := image.NewUniform(color.Alpha{A: uint8(progress * 255)})
	draw.DrawMask(dst, dst.Bounds(), f.Image, b.Min, mask, image.Point{}, draw.Over)
	return dst
}

// FadeProgress returns how far through the fade the frame is after elapsed.
func (f *DecodedFrame) FadeProgress(elapsed time.Duration) float64 {
	if f.Previous == nil || f.Fade <= 0 {
		return 1
	}
	p := float64(elapsed) / float64(f.Fade)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
