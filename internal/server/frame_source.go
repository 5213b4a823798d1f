// ABOUTME: Frame source abstraction for the test stream server
// ABOUTME: Loads JPEG frames from MJPEG recordings or image directories
package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// FrameSource provides encoded JPEG frames in playback order
type FrameSource interface {
	// Next returns the next frame, or io.EOF when the source is exhausted
	Next() ([]byte, error)
	// Name describes the source for display
	Name() string
	// Close releases the source
	Close() error
}

// NewFrameSource creates a frame source from a path. An empty path yields
// a generated test pattern; a directory yields its .jpg files in name
// order; any other file is read as an MJPEG stream.
func NewFrameSource(path string, loop bool) (FrameSource, error) {
	if path == "" {
		return NewTestPatternSource(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("frame source not found: %w", err)
	}

	var frames [][]byte
	if info.IsDir() {
		frames, err = loadJPEGDir(path)
	} else {
		frames, err = loadMJPEGFile(path)
	}
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames found in %s", path)
	}

	return &sliceSource{name: filepath.Base(path), frames: frames, loop: loop}, nil
}

// loadMJPEGFile splits a recorded stream into frames, skipping damaged ones
func loadMJPEGFile(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var frames [][]byte
	d := mjpeg.NewDemuxer(f)
	for {
		frame, err := d.ReadFrame()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if mjpeg.IsDemuxError(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		frames = append(frames, frame.Data)
	}
}

// loadJPEGDir reads every .jpg/.jpeg file in dir
func loadJPEGDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".jpg" || ext == ".jpeg") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	frames := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		frames = append(frames, data)
	}
	return frames, nil
}

// sliceSource plays preloaded frames, optionally looping
type sliceSource struct {
	name   string
	frames [][]byte
	loop   bool

	mu  sync.Mutex
	pos int
}

func (s *sliceSource) Next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.frames) {
		if !s.loop {
			return nil, io.EOF
		}
		s.pos = 0
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

func (s *sliceSource) Name() string {
	return fmt.Sprintf("%s (%d frames)", s.name, len(s.frames))
}

func (s *sliceSource) Close() error { return nil }
