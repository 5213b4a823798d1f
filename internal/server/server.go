// ABOUTME: Test stream server serving MJPEG over HTTP and WebSocket
// ABOUTME: Manages connections, client state and frame delivery
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/harperreed/mjpeg-go/internal/discovery"
	"github.com/harperreed/mjpeg-go/internal/log"
	"github.com/harperreed/mjpeg-go/internal/version"
	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

const (
	// StreamPath serves multipart or bare MJPEG
	StreamPath = "/stream"
	// WebSocketPath serves one JPEG per binary message
	WebSocketPath = "/ws"

	writeDeadline = 10 * time.Second
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	Frames     string // MJPEG file or .jpg directory; empty = test pattern
	FPS        int
	Boundary   string
	Loop       bool
	EnableMDNS bool
	UseTUI     bool
}

// Server streams frames to any number of viewers
type Server struct {
	config   Config
	serverID string
	log      zerolog.Logger

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Frame streaming
	source FrameSource
	engine *FrameEngine

	// mDNS discovery
	mdnsManager *discovery.Manager

	// TUI
	tui       *ServerTUI
	startTime time.Time

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// New creates a server and loads its frame source
func New(config Config) (*Server, error) {
	if config.Boundary == "" {
		config.Boundary = mjpeg.DefaultBoundary
	}
	if config.Name == "" {
		config.Name = "MJPEG Test Server"
	}

	source, err := NewFrameSource(config.Frames, config.Loop)
	if err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}

	logger := log.WithComponent("server")
	s := &Server{
		config:    config,
		serverID:  uuid.New().String(),
		log:       logger,
		mux:       http.NewServeMux(),
		source:    source,
		engine:    NewFrameEngine(source, config.FPS, logger),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			// Local test server; viewers are not browsers.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.mux.HandleFunc(StreamPath, s.handleStream)
	s.mux.HandleFunc(WebSocketPath, s.handleWebSocket)
	return s, nil
}

// Handler returns the HTTP handler serving the stream endpoints
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Engine returns the frame engine
func (s *Server) Engine() *FrameEngine {
	return s.engine
}

// Start runs the server until Stop is called, the TUI quits or serving fails
func (s *Server) Start() error {
	var tuiLoopDone chan struct{}
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.status()); err != nil {
				s.log.Error().Err(err).Msg("TUI failed")
			}
		}()

		tuiLoopDone = make(chan struct{})
		go func() {
			defer close(tuiLoopDone)
			s.tuiLoop()
		}()
	}

	s.log.Info().Str("name", s.config.Name).Str("id", s.serverID).Msg("Server starting")

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        StreamPath,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to start mDNS advertisement")
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.engine.Start()
	}()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Info().Str("addr", addr).Msg("HTTP server listening")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	var serverErr error
	select {
	case <-s.stopChan:
		s.log.Info().Msg("Server shutting down")
	case <-tuiQuitChan:
		s.log.Info().Msg("TUI quit requested, shutting down")
	case err := <-errChan:
		s.log.Error().Err(err).Msg("HTTP server error")
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	s.Stop()
	if s.tui != nil {
		// The TUI's update channel closes only once nothing can send on it.
		<-tuiLoopDone
		s.tui.Stop()
	}

	// Closing the clients lets streaming handlers return before Shutdown waits on them.
	s.engine.Stop()

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	s.wg.Wait()
	s.source.Close()
	s.log.Info().Msg("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShutdown
}

// handleStream serves multipart/x-mixed-replace, or bare concatenated
// JPEGs when framing=marker is requested
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	framing, transport := mjpeg.FramingHeader, "multipart"
	if r.URL.Query().Get("framing") == "marker" {
		framing, transport = mjpeg.FramingMarker, "marker"
	}

	fw := mjpeg.NewWriter(w, mjpeg.WithFraming(framing), mjpeg.WithBoundary(s.config.Boundary))
	w.Header().Set("Content-Type", fw.ContentType())
	w.Header().Set("Server", version.String())
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	client := newClient(transport, r.RemoteAddr)
	s.engine.AddClient(client)
	defer s.engine.RemoveClient(client)

	for {
		select {
		case frame, ok := <-client.frames:
			if !ok {
				return
			}
			if err := fw.WriteFrame(frame); err != nil {
				s.log.Debug().Err(err).Str("client", client.ID).Msg("Stream write failed")
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			client.sent.Add(1)
		case <-r.Context().Done():
			return
		}
	}
}

// handleWebSocket streams one JPEG per binary message
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	client := newClient("websocket", r.RemoteAddr)
	s.engine.AddClient(client)
	defer s.engine.RemoveClient(client)

	// Reads only detect the peer going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-client.frames:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "end of stream"),
					time.Now().Add(writeDeadline))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				s.log.Debug().Err(err).Str("client", client.ID).Msg("WebSocket write failed")
				return
			}
			client.sent.Add(1)
		case <-gone:
			return
		}
	}
}
