// ABOUTME: TUI update helpers for server
// ABOUTME: Builds status snapshots and pushes them to the TUI
package server

import (
	"sort"
	"time"
)

// status builds a snapshot of the server state
func (s *Server) status() ServerStatus {
	clients := s.engine.Clients()
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ConnectedAt.Before(clients[j].ConnectedAt)
	})

	infos := make([]ClientInfo, 0, len(clients))
	for _, client := range clients {
		infos = append(infos, ClientInfo{
			ID:        client.ID,
			Remote:    client.Remote,
			Transport: client.Transport,
			Sent:      client.Sent(),
			Skipped:   client.Skipped(),
			Connected: time.Since(client.ConnectedAt),
		})
	}

	return ServerStatus{
		Name:       s.config.Name,
		Port:       s.config.Port,
		Source:     s.source.Name(),
		FPS:        s.config.FPS,
		FramesSent: s.engine.FramesSent(),
		Clients:    infos,
	}
}

// tuiLoop refreshes the TUI once a second until the server stops
func (s *Server) tuiLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tui.Update(s.status())
		case <-s.stopChan:
			return
		}
	}
}
