// ABOUTME: Entry point for the MJPEG viewer
// ABOUTME: Parses CLI flags and config, then runs the viewer application
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

	"github.com/harperreed/mjpeg-go/internal/app"
	"github.com/harperreed/mjpeg-go/internal/config"
	"github.com/harperreed/mjpeg-go/internal/log"
	"github.com/harperreed/mjpeg-go/internal/version"
)

func main() {
	cliApp := &cli.App{
		Name:      "mjpeg",
		Usage:     "Play an MJPEG camera stream",
		ArgsUsage: "[source]",
		Version:   version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Stream URL or file (default: discover via mDNS)"},
			&cli.BoolFlag{Name: "crossfade", Usage: "Fade between consecutive frames"},
			&cli.IntFlag{Name: "downsample", Usage: "Decode downsample hint (1, 2, 4 or 8)"},
			&cli.BoolFlag{Name: "reconnect", Usage: "Restart automatically after errors"},
			&cli.StringFlag{Name: "snapshot-dir", Usage: "Save rendered frames to this directory"},
			&cli.IntFlag{Name: "snapshot-every", Usage: "Save every Nth rendered frame"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on this address"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-file", Usage: "Log file path"},
			&cli.BoolFlag{Name: "no-tui", Usage: "Disable TUI, use streaming logs instead"},
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

	logFile, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	// The TUI owns the terminal, so logs go only to the file.
	var out io.Writer = logFile
	if cfg.Viewer.NoTUI {
		out = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout}, logFile)
	}
	log.Configure(log.Config{Level: cfg.Log.Level, Output: out, Service: "mjpeg-viewer"})

	logger := log.WithComponent("main")
	logger.Info().Str("version", version.Version).Str("source", cfg.Viewer.Source).Msg("Starting viewer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	viewer := app.New(app.Config{
		Viewer:      cfg.Viewer,
		MetricsAddr: cfg.Metrics.Addr,
	})
	if err := viewer.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Viewer failed")
		return err
	}

	logger.Info().Msg("Viewer stopped")
	return nil
}

// applyFlags overrides file settings with flags given on the command line
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("source") {
		cfg.Viewer.Source = c.String("source")
	} else if c.Args().Present() {
		cfg.Viewer.Source = c.Args().First()
	}
	if c.IsSet("crossfade") {
		cfg.Viewer.CrossFade = c.Bool("crossfade")
	}
	if c.IsSet("downsample") {
		cfg.Viewer.Downsample = c.Int("downsample")
	}
	if c.IsSet("reconnect") {
		cfg.Viewer.Reconnect = c.Bool("reconnect")
	}
	if c.IsSet("snapshot-dir") {
		cfg.Viewer.SnapshotDir = c.String("snapshot-dir")
	}
	if c.IsSet("snapshot-every") {
		cfg.Viewer.SnapshotEvery = c.Int("snapshot-every")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if c.IsSet("no-tui") {
		cfg.Viewer.NoTUI = c.Bool("no-tui")
	}
}
