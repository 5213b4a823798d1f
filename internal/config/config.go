// ABOUTME: Configuration for the viewer and the test stream server
// ABOUTME: YAML file loading with defaults and validation
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// Config represents the complete configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Server  ServerConfig  `yaml:"server"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: info)
	File  string `yaml:"file"`  // log file; the TUI owns the terminal (default: mjpeg.log)
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	Addr string `yaml:"addr"` // listen address for /metrics; empty disables
}

// ViewerConfig contains playback settings
type ViewerConfig struct {
	Source           string        `yaml:"source"`            // URL or path; empty means discover via mDNS
	CrossFade        bool          `yaml:"cross_fade"`        // fade between consecutive frames
	Downsample       int           `yaml:"downsample"`        // decode downsample factor
	MaxFrameSize     int           `yaml:"max_frame_size"`    // header plus image ceiling in bytes
	JoinTimeout      time.Duration `yaml:"join_timeout"`      // how long stop waits for the producer
	ErrorSettle      time.Duration `yaml:"error_settle"`      // pause between an error and the next start
	Reconnect        bool          `yaml:"reconnect"`         // restart automatically after errors
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`   // delay before an automatic restart
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"` // how long to browse for a camera
	SnapshotDir      string        `yaml:"snapshot_dir"`      // save frames here when set
	SnapshotEvery    int           `yaml:"snapshot_every"`    // save every Nth frame
	NoTUI            bool          `yaml:"no_tui"`            // log instead of drawing the TUI
}

// ServerConfig contains test stream server settings
type ServerConfig struct {
	Port      int    `yaml:"port"`
	Name      string `yaml:"name"`      // advertised mDNS name
	Frames    string `yaml:"frames"`    // MJPEG file or directory of .jpg files
	FPS       int    `yaml:"fps"`       // frames per second per client
	Boundary  string `yaml:"boundary"`  // multipart boundary
	Advertise bool   `yaml:"advertise"` // announce via mDNS
	Loop      bool   `yaml:"loop"`      // restart from the first frame at the end
}

// Default returns the configuration used when no file or flag says otherwise
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
			File:  "mjpeg.log",
		},
		Viewer: ViewerConfig{
			Downsample:       1,
			MaxFrameSize:     mjpeg.DefaultMaxFrameSize,
			JoinTimeout:      mjpeg.DefaultJoinTimeout,
			ErrorSettle:      mjpeg.DefaultErrorSettle,
			ReconnectDelay:   2 * time.Second,
			DiscoveryTimeout: 10 * time.Second,
			SnapshotEvery:    1,
		},
		Server: ServerConfig{
			Port:      8080,
			Name:      "MJPEG Test Server",
			FPS:       15,
			Boundary:  mjpeg.DefaultBoundary,
			Advertise: true,
			Loop:      true,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := Parse(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes YAML into cfg, rejecting unknown keys, and validates it
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var result error

	v := c.Viewer
	if v.Downsample < 1 {
		result = multierror.Append(result, fmt.Errorf("viewer.downsample must be >= 1, got %d", v.Downsample))
	}
	if v.MaxFrameSize < 1024 {
		result = multierror.Append(result, fmt.Errorf("viewer.max_frame_size must be >= 1024, got %d", v.MaxFrameSize))
	}
	if v.JoinTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("viewer.join_timeout must be positive"))
	}
	if v.ErrorSettle < 0 {
		result = multierror.Append(result, fmt.Errorf("viewer.error_settle must not be negative"))
	}
	if v.Reconnect && v.ReconnectDelay <= 0 {
		result = multierror.Append(result, fmt.Errorf("viewer.reconnect_delay must be positive when reconnect is on"))
	}
	if v.SnapshotEvery < 1 {
		result = multierror.Append(result, fmt.Errorf("viewer.snapshot_every must be >= 1, got %d", v.SnapshotEvery))
	}

	s := c.Server
	if s.Port < 0 || s.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port out of range: %d", s.Port))
	}
	if s.FPS < 1 || s.FPS > 120 {
		result = multierror.Append(result, fmt.Errorf("server.fps must be between 1 and 120, got %d", s.FPS))
	}
	if s.Boundary == "" {
		result = multierror.Append(result, fmt.Errorf("server.boundary must not be empty"))
	}

	return result
}
