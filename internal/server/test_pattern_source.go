// ABOUTME: Test pattern generator for the frame source
// ABOUTME: Renders a moving bar over a gradient and encodes it as JPEG
package server

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
)

const (
	PatternWidth  = 160
	PatternHeight = 120
	patternBar    = 16
)

// TestPatternSource generates an endless sequence of test frames
type TestPatternSource struct {
	mu    sync.Mutex
	index int
}

// NewTestPatternSource creates a new test pattern generator
func NewTestPatternSource() *TestPatternSource {
	return &TestPatternSource{}
}

func (s *TestPatternSource) Next() ([]byte, error) {
	s.mu.Lock()
	index := s.index
	s.index++
	s.mu.Unlock()

	img := image.NewGray(image.Rect(0, 0, PatternWidth, PatternHeight))
	barX := (index * 4) % PatternWidth
	for y := 0; y < PatternHeight; y++ {
		for x := 0; x < PatternWidth; x++ {
			v := uint8(x * 255 / PatternWidth)
			if x >= barX && x < barX+patternBar {
				v = 255 - v
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("failed to encode test pattern: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *TestPatternSource) Name() string { return "Test Pattern" }
func (s *TestPatternSource) Close() error { return nil }
