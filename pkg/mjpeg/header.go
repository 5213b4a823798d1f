// ABOUTME: Frame header parsing for multipart-style MJPEG framing
// ABOUTME: Extracts key/value fields and the Content-Length of the next image
package mjpeg

import (
	"bufio"
	"bytes"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
)

// ContentLengthKey is the header field giving the size of the image that follows.
const ContentLengthKey = "Content-Length"

// Header holds the fields of a frame header, keyed by canonical MIME key.
type Header map[string]string

// Get returns the value for key, matching case-insensitively.
func (h Header) Get(key string) string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// ContentLength returns the parsed Content-Length field.
func (h Header) ContentLength() (int, error) {
	raw, ok := h[ContentLengthKey]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedHeader, ContentLengthKey)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedHeader, ContentLengthKey, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s %d", ErrMalformedHeader, ContentLengthKey, n)
	}
	return n, nil
}

// ParseHeader parses "key: value" or "key=value" lines. Lines without a
// separator, such as multipart boundary lines, are skipped.
func ParseHeader(b []byte) Header {
	h := Header{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		i := strings.IndexAny(line, ":=")
		if i <= 0 {
			continue
		}

		key := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(line[:i]))
		h[key] = strings.TrimSpace(line[i+1:])
	}
	return h
}
