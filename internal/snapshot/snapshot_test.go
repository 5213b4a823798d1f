// ABOUTME: Tests for the snapshot sink
// ABOUTME: Tests frame selection, file output and forwarding
package snapshot

import (
	"image"
	"image/jpeg"
	"os"
	"testing"
	"time"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

func TestNewCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/out"
	s, err := New(Config{Dir: dir})
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}
	if _, err := os.Stat(s.Dir()); err != nil {
		t.Errorf("snapshot directory was not created: %v", err)
	}
}

func TestRenderSavesEveryNth(t *testing.T) {
	var forwarded []uint64
	next := mjpeg.SinkFunc(func(f *mjpeg.DecodedFrame) {
		forwarded = append(forwarded, f.Seq)
		f.Done()
	})

	s, err := New(Config{Dir: t.TempDir(), Every: 2, Next: next})
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}

	now := time.Now()
	for seq := uint64(1); seq <= 5; seq++ {
		s.Render(&mjpeg.DecodedFrame{
			Seq:       seq,
			Image:     image.NewGray(image.Rect(0, 0, 4, 4)),
			DecodedAt: now,
		})
	}

	if s.Saved() != 2 {
		t.Errorf("expected 2 snapshots, got %d", s.Saved())
	}
	if len(forwarded) != 5 {
		t.Errorf("expected all 5 frames forwarded, got %d", len(forwarded))
	}

	file, err := os.Open(s.CurrentPath())
	if err != nil {
		t.Fatalf("failed to open snapshot: %v", err)
	}
	defer file.Close()

	img, err := jpeg.Decode(file)
	if err != nil {
		t.Fatalf("snapshot is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("expected width 4, got %d", img.Bounds().Dx())
	}
}
