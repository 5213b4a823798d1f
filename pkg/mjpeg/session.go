// ABOUTME: Playback session owned by one producer goroutine
// ABOUTME: Holds the stream handle, gate, running flag and cancellation
package mjpeg

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Source opens the byte stream for a session.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (io.ReadCloser, error)

func (fn SourceFunc) Open(ctx context.Context) (io.ReadCloser, error) { return fn(ctx) }

type session struct {
	id      string
	log     zerolog.Logger
	source  Source
	gate    *Gate
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	done    chan struct{}

	mu     sync.Mutex
	stream io.ReadCloser
	closed bool
}

func newSession(parent context.Context, log zerolog.Logger) *session {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.New().String()
	s := &session{
		id:     id,
		log:    log.With().Str("session_id", id).Logger(),
		gate:   NewGate(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.running.Store(true)
	return s
}

// setStream installs the opened stream. It returns false, closing rc, if
// the session was stopped while the stream was being opened.
func (s *session) setStream(rc io.ReadCloser) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		rc.Close()
		return false
	}
	s.stream = rc
	return true
}

func (s *session) getStream() io.ReadCloser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// closeStream cancels the session context and closes the stream once.
// Closing interrupts a blocked read in the producer.
func (s *session) closeStream() {
	s.cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			s.log.Debug().Err(err).Msg("Stream close error")
		}
	}
}
