// ABOUTME: WebSocket MJPEG source
// ABOUTME: Joins binary WebSocket messages into one continuous byte stream
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// WebSocket reads binary messages from a WebSocket endpoint. Message
// boundaries are not significant; frames are found by the demuxer.
type WebSocket struct {
	URL    string
	Dialer *websocket.Dialer
}

// Open implements mjpeg.Source.
func (w WebSocket) Open(ctx context.Context) (io.ReadCloser, error) {
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
			return nil, classify(mjpeg.ConnectionRejected, "dial", w.URL, fmt.Errorf("status %s", resp.Status))
		}
		return nil, classify(mjpeg.ServerUnreachable, "dial", w.URL, err)
	}

	return &wsStream{conn: conn}, nil
}

// wsStream adapts a WebSocket connection to io.ReadCloser.
type wsStream struct {
	conn *websocket.Conn
	cur  io.Reader

	closeOnce sync.Once
	closeErr  error
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.cur != nil {
			n, err := s.cur.Read(p)
			if errors.Is(err, io.EOF) {
				s.cur = nil
				err = nil
			}
			if n > 0 || err != nil {
				return n, err
			}
			continue
		}

		messageType, r, err := s.conn.NextReader()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}
		if messageType == websocket.BinaryMessage {
			s.cur = r
		}
	}
}

// Close closes the connection, which unblocks a pending Read.
func (s *wsStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
