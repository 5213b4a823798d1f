// ABOUTME: Connected stream client state
// ABOUTME: Holds the per-client frame slot and delivery counters
package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Client represents a connected viewer
type Client struct {
	ID          string
	Transport   string // multipart, marker or websocket
	Remote      string
	ConnectedAt time.Time

	frames    chan []byte
	closeOnce sync.Once

	sent    atomic.Uint64
	skipped atomic.Uint64
}

func newClient(transport, remote string) *Client {
	return &Client{
		ID:          uuid.New().String(),
		Transport:   transport,
		Remote:      remote,
		ConnectedAt: time.Now(),
		frames:      make(chan []byte, 1),
	}
}

// offer queues frame unless the previous one is still pending.
// The caller holds the engine lock, which orders offer against close.
func (c *Client) offer(frame []byte) {
	select {
	case c.frames <- frame:
	default:
		c.skipped.Add(1)
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.frames) })
}

// Sent returns the number of frames written to the client
func (c *Client) Sent() uint64 { return c.sent.Load() }

// Skipped returns the number of frames the client was too slow for
func (c *Client) Skipped() uint64 { return c.skipped.Load() }
