// ABOUTME: Entry point for the MJPEG test stream server
// ABOUTME: Parses CLI flags and config, then serves frames until interrupted
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/harperreed/mjpeg-go/internal/config"
	"github.com/harperreed/mjpeg-go/internal/log"
	"github.com/harperreed/mjpeg-go/internal/server"
	"github.com/harperreed/mjpeg-go/internal/version"
)

func main() {
	cliApp := &cli.App{
		Name:    "mjpeg-server",
		Usage:   "Serve MJPEG test streams over HTTP and WebSocket",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "name", Usage: "Server friendly name (default: hostname-mjpeg-server)"},
			&cli.StringFlag{Name: "frames", Usage: "MJPEG file or directory of .jpg files (default: test pattern)"},
			&cli.IntFlag{Name: "fps", Usage: "Frames per second"},
			&cli.StringFlag{Name: "boundary", Usage: "Multipart boundary"},
			&cli.BoolFlag{Name: "loop", Usage: "Restart from the first frame at the end"},
			&cli.BoolFlag{Name: "no-mdns", Usage: "Disable mDNS advertisement"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-file", Value: "mjpeg-server.log", Usage: "Log file path"},
			&cli.BoolFlag{Name: "tui", Usage: "Show the status TUI"},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logFile, err := os.OpenFile(c.String("log-file"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer logFile.Close()

	useTUI := c.Bool("tui")
	var out io.Writer = logFile
	if !useTUI {
		out = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout}, logFile)
	}
	log.Configure(log.Config{Level: cfg.Log.Level, Output: out, Service: "mjpeg-server"})
	logger := log.WithComponent("main")

	name := cfg.Server.Name
	if !c.IsSet("name") && name == config.Default().Server.Name {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		name = fmt.Sprintf("%s-mjpeg-server", hostname)
	}

	srv, err := server.New(server.Config{
		Port:       cfg.Server.Port,
		Name:       name,
		Frames:     cfg.Server.Frames,
		FPS:        cfg.Server.FPS,
		Boundary:   cfg.Server.Boundary,
		Loop:       cfg.Server.Loop,
		EnableMDNS: cfg.Server.Advertise,
		UseTUI:     useTUI,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("name", name).Int("port", cfg.Server.Port).Msg("Starting MJPEG server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info().Msg("Shutdown signal received")
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	stop()

	logger.Info().Msg("Server stopped")
	return nil
}

// applyFlags overrides file settings with flags given on the command line
func applyFlags(c *cli.Context, cfg *config.Config) {
	s := &cfg.Server
	if c.IsSet("port") {
		s.Port = c.Int("port")
	}
	if c.IsSet("name") {
		s.Name = c.String("name")
	}
	if c.IsSet("frames") {
		s.Frames = c.String("frames")
	}
	if c.IsSet("fps") {
		s.FPS = c.Int("fps")
	}
	if c.IsSet("boundary") {
		s.Boundary = c.String("boundary")
	}
	if c.IsSet("loop") {
		s.Loop = c.Bool("loop")
	}
	if c.IsSet("no-mdns") {
		s.Advertise = !c.Bool("no-mdns")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
}
