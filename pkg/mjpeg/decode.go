// ABOUTME: JPEG payload decoding with optional downsampling
// ABOUTME: Default Decoder used by the player for each demuxed frame
package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Decoder turns a frame payload into an image. downsample is a hint: the
// decoded image may be shrunk by that factor in each dimension.
type Decoder interface {
	Decode(data []byte, downsample int) (image.Image, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte, downsample int) (image.Image, error)

func (fn DecoderFunc) Decode(data []byte, downsample int) (image.Image, error) {
	return fn(data, downsample)
}

// JPEGDecoder decodes baseline and progressive JPEG payloads.
type JPEGDecoder struct {
	// Scaler used for downsampling; defaults to draw.ApproxBiLinear.
	Scaler draw.Scaler
}

// Decode implements Decoder.
func (d JPEGDecoder) Decode(data []byte, downsample int) (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	if downsample <= 1 {
		return img, nil
	}

	scaler := d.Scaler
	if scaler == nil {
		scaler = draw.ApproxBiLinear
	}
	return Downsample(img, downsample, scaler), nil
}

// Downsample shrinks img by factor in each dimension, keeping at least one pixel.
func Downsample(img image.Image, factor int, scaler draw.Scaler) image.Image {
	b := img.Bounds()
	w := max(b.Dx()/factor, 1)
	h := max(b.Dy()/factor, 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
