// ABOUTME: Source URL parsing and open error classification
// ABOUTME: Maps URL schemes to File, HTTP and WebSocket sources
package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// Parse returns the source for raw. http and https URLs use HTTP, ws and
// wss use WebSocket, file URLs and bare paths use File.
func Parse(raw string) (mjpeg.Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty source")
	}
	if !strings.Contains(raw, "://") {
		return File{Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse source %q: %w", raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return HTTP{URL: raw}, nil
	case "ws", "wss":
		return WebSocket{URL: raw}, nil
	case "file":
		return File{Path: u.Path}, nil
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

// classify wraps err so errors.As finds kind.
func classify(kind mjpeg.PlaybackError, op, target string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, target, kind, err)
}
