// ABOUTME: HTTP MJPEG source
// ABOUTME: Streams a multipart/x-mixed-replace or bare JPEG response body
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// HTTP streams the body of a GET request.
type HTTP struct {
	URL string

	// Client defaults to a client without an overall timeout, since the
	// body is an unbounded stream.
	Client *http.Client

	// UserAgent is sent when non-empty.
	UserAgent string
}

var streamClient = &http.Client{}

// Open implements mjpeg.Source. The request is bound to ctx; a non-200
// answer is ConnectionRejected and any transport failure ServerUnreachable.
func (h HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, classify(mjpeg.ServerUnreachable, "request", h.URL, err)
	}

	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	client := h.Client
	if client == nil {
		client = streamClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(mjpeg.ServerUnreachable, "get", h.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, classify(mjpeg.ConnectionRejected, "get", h.URL, fmt.Errorf("status %s", resp.Status))
	}

	return resp.Body, nil
}
