// ABOUTME: File-backed MJPEG source
// ABOUTME: Plays recorded streams from disk
package source

import (
	"context"
	"io"
	"os"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// File reads a recorded MJPEG stream from disk.
type File struct {
	Path string
}

// Open implements mjpeg.Source.
func (f File) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, classify(mjpeg.ServerUnreachable, "open", f.Path, err)
	}
	return file, nil
}
