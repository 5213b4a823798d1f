// ABOUTME: mDNS discovery for MJPEG cameras and stream servers
// ABOUTME: Handles both advertisement (server side) and browsing (viewer side)
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"

	"github.com/harperreed/mjpeg-go/internal/log"
)

const (
	// ServiceType is the mDNS service advertised by MJPEG stream servers.
	ServiceType = "_mjpeg._tcp"
	// DefaultPath is the stream path assumed when a TXT record has none.
	DefaultPath = "/stream"

	browseTimeout = 3 * time.Second
)

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string // advertised stream path (default: /stream)
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	cameras chan *CameraInfo
}

// CameraInfo describes a discovered stream endpoint
type CameraInfo struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the HTTP stream URL of the camera.
func (c *CameraInfo) URL() string {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) + path
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:  config,
		log:     log.WithComponent("discovery"),
		ctx:     ctx,
		cancel:  cancel,
		cameras: make(chan *CameraInfo, 10),
	}
}

// Advertise announces this stream server via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Path},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.log.Info().
		Str("name", m.config.ServiceName).
		Int("port", m.config.Port).
		Str("type", ServiceType).
		Msg("Advertising mDNS service")

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for stream servers until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop repeatedly queries the network for stream servers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				camera := cameraFromEntry(entry)
				if camera == nil {
					continue
				}

				m.log.Info().Str("name", camera.Name).Str(log.FieldURL, camera.URL()).Msg("Discovered camera")

				select {
				case m.cameras <- camera:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: browseTimeout,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			m.log.Debug().Err(err).Msg("mDNS query failed")
		}
		close(entries)
		<-done
	}
}

// cameraFromEntry converts an mDNS answer, returning nil when it has no address
func cameraFromEntry(entry *mdns.ServiceEntry) *CameraInfo {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		return nil
	}

	camera := &CameraInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: host,
		Port: entry.Port,
		Path: DefaultPath,
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok && path != "" {
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			camera.Path = path
		}
	}

	return camera
}

// Cameras returns the channel of discovered cameras
func (m *Manager) Cameras() <-chan *CameraInfo {
	return m.cameras
}

// Stop stops advertising and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns non-loopback IPv4 addresses of interfaces that are up
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
