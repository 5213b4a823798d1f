// ABOUTME: Snapshot sink that saves rendered frames to disk
// ABOUTME: Writes every Nth frame as a JPEG, then hands the frame on
package snapshot

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/harperreed/mjpeg-go/internal/log"
	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// Config holds snapshot configuration
type Config struct {
	Dir     string     // output directory (default: <tmp>/mjpeg-snapshots)
	Every   int        // save every Nth frame (default: 1)
	Quality int        // JPEG quality (default: 90)
	Next    mjpeg.Sink // optional sink that displays the frame
}

// Sink saves frames and forwards them to the next sink
type Sink struct {
	config Config
	log    zerolog.Logger

	mu          sync.Mutex
	saved       int
	currentPath string
}

// New creates a snapshot sink, creating the output directory
func New(config Config) (*Sink, error) {
	if config.Dir == "" {
		config.Dir = filepath.Join(os.TempDir(), "mjpeg-snapshots")
	}
	if config.Every <= 0 {
		config.Every = 1
	}
	if config.Quality <= 0 || config.Quality > 100 {
		config.Quality = 90
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &Sink{
		config: config,
		log:    log.WithComponent("snapshot"),
	}, nil
}

// Render implements mjpeg.Sink. Save failures are logged; playback goes on.
func (s *Sink) Render(f *mjpeg.DecodedFrame) {
	if f.Seq%uint64(s.config.Every) == 0 {
		if path, err := s.save(f); err != nil {
			s.log.Warn().Err(err).Uint64(log.FieldSeq, f.Seq).Msg("Snapshot failed")
		} else {
			s.log.Debug().Str("path", path).Msg("Snapshot saved")
		}
	}

	if s.config.Next != nil {
		s.config.Next.Render(f)
		return
	}
	f.Done()
}

// save encodes the frame into the output directory
func (s *Sink) save(f *mjpeg.DecodedFrame) (string, error) {
	name := fmt.Sprintf("frame-%d-%06d.jpg", f.DecodedAt.UnixMilli(), f.Seq)
	path := filepath.Join(s.config.Dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}

	if err := jpeg.Encode(file, f.Image, &jpeg.Options{Quality: s.config.Quality}); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.mu.Lock()
	s.saved++
	s.currentPath = path
	s.mu.Unlock()
	return path, nil
}

// CurrentPath returns the path of the most recent snapshot
func (s *Sink) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPath
}

// Saved returns how many snapshots were written
func (s *Sink) Saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Dir returns the output directory
func (s *Sink) Dir() string {
	return s.config.Dir
}
