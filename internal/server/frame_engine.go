// ABOUTME: Frame broadcast engine for the test stream server
// ABOUTME: Paces frames from a source and fans them out to connected clients
package server

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FrameEngine reads frames at a fixed rate and broadcasts them
type FrameEngine struct {
	source   FrameSource
	interval time.Duration
	log      zerolog.Logger

	// Active clients
	clients   map[string]*Client
	clientsMu sync.RWMutex
	finished  bool

	frames uint64

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewFrameEngine creates an engine sending fps frames per second
func NewFrameEngine(source FrameSource, fps int, logger zerolog.Logger) *FrameEngine {
	if fps <= 0 {
		fps = 15
	}
	return &FrameEngine{
		source:   source,
		interval: time.Second / time.Duration(fps),
		log:      logger,
		clients:  make(map[string]*Client),
		stopChan: make(chan struct{}),
	}
}

// Start runs the engine until Stop is called or the source ends
func (e *FrameEngine) Start() {
	e.log.Info().Str("source", e.source.Name()).Dur("interval", e.interval).Msg("Frame engine starting")
	defer e.finish()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			frame, err := e.source.Next()
			if errors.Is(err, io.EOF) {
				e.log.Info().Msg("Frame source exhausted")
				return
			}
			if err != nil {
				e.log.Error().Err(err).Msg("Frame source failed")
				return
			}
			e.broadcast(frame)
		case <-e.stopChan:
			e.log.Info().Msg("Frame engine stopping")
			return
		}
	}
}

// Stop stops the engine
func (e *FrameEngine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

// AddClient registers a client; it is closed at once if the engine is done
func (e *FrameEngine) AddClient(client *Client) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	if e.finished {
		client.close()
		return
	}
	e.clients[client.ID] = client
	e.log.Info().Str("client", client.ID).Str("transport", client.Transport).Msg("Client added")
}

// RemoveClient unregisters a client
func (e *FrameEngine) RemoveClient(client *Client) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	delete(e.clients, client.ID)
	e.log.Info().Str("client", client.ID).Msg("Client removed")
}

// Clients returns a snapshot of connected clients
func (e *FrameEngine) Clients() []*Client {
	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()

	clients := make([]*Client, 0, len(e.clients))
	for _, c := range e.clients {
		clients = append(clients, c)
	}
	return clients
}

// FramesSent returns how many frames were broadcast
func (e *FrameEngine) FramesSent() uint64 {
	e.clientsMu.RLock()
	defer e.clientsMu.RUnlock()
	return e.frames
}

// broadcast offers frame to every client; a client still busy with the
// previous frame skips this one
func (e *FrameEngine) broadcast(frame []byte) {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	e.frames++
	for _, client := range e.clients {
		client.offer(frame)
	}
}

// finish closes every client so their handlers end the response
func (e *FrameEngine) finish() {
	e.clientsMu.Lock()
	defer e.clientsMu.Unlock()

	e.finished = true
	for id, client := range e.clients {
		client.close()
		delete(e.clients, id)
	}
}
