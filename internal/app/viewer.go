// ABOUTME: Viewer application orchestration
// ABOUTME: Coordinates source resolution, player, sinks, metrics and UI
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/mjpeg-go/internal/config"
	"github.com/harperreed/mjpeg-go/internal/discovery"
	"github.com/harperreed/mjpeg-go/internal/log"
	"github.com/harperreed/mjpeg-go/internal/metrics"
	"github.com/harperreed/mjpeg-go/internal/snapshot"
	"github.com/harperreed/mjpeg-go/internal/ui"
	"github.com/harperreed/mjpeg-go/internal/version"
	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
	"github.com/harperreed/mjpeg-go/pkg/source"
)

const statusInterval = 500 * time.Millisecond

// Config holds viewer configuration
type Config struct {
	Viewer      config.ViewerConfig
	MetricsAddr string

	// Sink replaces the TUI or log sink; used by embedders and tests
	Sink mjpeg.Sink
}

// Viewer plays one camera stream
type Viewer struct {
	config   Config
	log      zerolog.Logger
	player   *mjpeg.Player
	registry *prometheus.Registry
	controls *ui.Controls
	tuiProg  *tea.Program
	retry    chan struct{}

	source     mjpeg.Source
	sourceName string
}

// New creates a viewer
func New(cfg Config) *Viewer {
	return &Viewer{
		config:   cfg,
		log:      log.WithComponent("viewer"),
		registry: prometheus.NewRegistry(),
		controls: ui.NewControls(),
		retry:    make(chan struct{}, 1),
	}
}

// Player returns the underlying player once Run has built it
func (v *Viewer) Player() *mjpeg.Player {
	return v.player
}

// Run plays until ctx is cancelled or the user quits
func (v *Viewer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, name, err := v.resolveSource(ctx)
	if err != nil {
		return err
	}
	v.source, v.sourceName = src, name

	if err := v.buildPlayer(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var metricsServer *http.Server
	if v.config.MetricsAddr != "" {
		metricsServer = &http.Server{Addr: v.config.MetricsAddr, Handler: metrics.Handler(v.registry)}
		g.Go(func() error {
			v.log.Info().Str("addr", v.config.MetricsAddr).Msg("Serving metrics")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if v.tuiProg != nil {
		g.Go(func() error {
			defer cancel()
			if _, err := v.tuiProg.Run(); err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			v.pushStatus(ctx)
			return nil
		})
	}

	g.Go(func() error {
		v.controlLoop(ctx, cancel)
		return nil
	})

	v.log.Info().Str(log.FieldURL, v.sourceName).Msg("Starting playback")
	v.player.StartSource(ctx, v.source)

	<-ctx.Done()

	var result error
	v.player.Close()
	if v.tuiProg != nil {
		v.tuiProg.Quit()
	}
	if metricsServer != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			result = multierror.Append(result, fmt.Errorf("metrics shutdown: %w", err))
		}
		done()
	}
	if err := g.Wait(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// resolveSource uses the configured source or the first camera found via mDNS
func (v *Viewer) resolveSource(ctx context.Context) (mjpeg.Source, string, error) {
	if v.config.Viewer.Source != "" {
		src, err := source.Parse(v.config.Viewer.Source)
		if err != nil {
			return nil, "", err
		}
		if h, ok := src.(source.HTTP); ok {
			h.UserAgent = version.String()
			src = h
		}
		return src, v.config.Viewer.Source, nil
	}

	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()
	if err := mgr.Browse(); err != nil {
		return nil, "", fmt.Errorf("discovery failed: %w", err)
	}

	v.log.Info().Dur("timeout", v.config.Viewer.DiscoveryTimeout).Msg("Browsing for cameras")
	timer := time.NewTimer(v.config.Viewer.DiscoveryTimeout)
	defer timer.Stop()

	select {
	case camera := <-mgr.Cameras():
		url := camera.URL()
		v.log.Info().Str("name", camera.Name).Str(log.FieldURL, url).Msg("Using discovered camera")
		return source.HTTP{URL: url, UserAgent: version.String()}, url, nil
	case <-timer.C:
		return nil, "", fmt.Errorf("no camera found within %s", v.config.Viewer.DiscoveryTimeout)
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

// buildPlayer wires sinks, listeners and metrics around a new player
func (v *Viewer) buildPlayer() error {
	cfg := v.config.Viewer

	sink := v.config.Sink
	if sink == nil {
		if cfg.NoTUI {
			sink = newLogSink(v.log)
		} else {
			v.tuiProg = ui.Run(v.controls, v.sourceName, cfg.CrossFade)
			sink = ui.NewSink(v.tuiProg, ui.DefaultPreviewWidth, ui.DefaultPreviewHeight)
		}
	}

	if cfg.SnapshotDir != "" {
		snap, err := snapshot.New(snapshot.Config{
			Dir:   cfg.SnapshotDir,
			Every: cfg.SnapshotEvery,
			Next:  sink,
		})
		if err != nil {
			return err
		}
		sink = snap
	}

	logger := log.WithComponent("mjpeg")
	player, err := mjpeg.NewPlayer(mjpeg.Config{
		Sink:         sink,
		Logger:       &logger,
		CrossFade:    cfg.CrossFade,
		Downsample:   cfg.Downsample,
		MaxFrameSize: cfg.MaxFrameSize,
		JoinTimeout:  cfg.JoinTimeout,
		ErrorSettle:  cfg.ErrorSettle,
	})
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	v.player = player

	player.AddListener(metrics.NewRecorder(v.registry))
	metrics.RegisterPlayerStats(v.registry, player.Stats)

	if v.tuiProg != nil {
		player.AddListener(ui.NewListener(v.tuiProg, player))
	}

	player.AddListener(&mjpeg.ListenerFuncs{
		StateChanged: func(state mjpeg.State) {
			v.log.Info().Stringer(log.FieldNewState, state).Msg("Playback state")
		},
		PlaybackError: func(perr mjpeg.PlaybackError) {
			v.log.Warn().Stringer("error", perr).Msg("Playback failed")
			if cfg.Reconnect {
				select {
				case v.retry <- struct{}{}:
				default:
				}
			}
		},
	})

	return nil
}

// controlLoop handles reconnects and requests from the TUI
func (v *Viewer) controlLoop(ctx context.Context, cancel context.CancelFunc) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-v.retry:
			v.log.Info().Dur("delay", v.config.Viewer.ReconnectDelay).Msg("Scheduling reconnect")
			timer.Reset(v.config.Viewer.ReconnectDelay)

		case <-timer.C:
			v.log.Info().Msg("Reconnecting")
			v.player.StartSource(ctx, v.source)

		case <-v.controls.Reconnect:
			v.log.Info().Msg("Reconnect requested")
			v.player.StartSource(ctx, v.source)

		case on := <-v.controls.CrossFade:
			v.player.SetCrossFadeEnabled(on)

		case <-v.controls.Quit:
			cancel()
			return
		}
	}
}

// pushStatus periodically sends player statistics to the TUI
func (v *Viewer) pushStatus(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	crossFade := v.player.CrossFadeEnabled()
	v.tuiProg.Send(ui.StatusMsg{Source: v.sourceName, CrossFade: &crossFade})

	for {
		select {
		case <-ticker.C:
			stats := v.player.Stats()
			v.tuiProg.Send(ui.StatusMsg{Stats: &stats, SessionID: v.player.SessionID()})
		case <-ctx.Done():
			return
		}
	}
}

// logSink logs frames instead of drawing them
type logSink struct {
	log zerolog.Logger
}

func newLogSink(logger zerolog.Logger) *logSink {
	return &logSink{log: logger}
}

func (s *logSink) Render(f *mjpeg.DecodedFrame) {
	defer f.Done()
	b := f.Image.Bounds()
	s.log.Debug().
		Uint64(log.FieldSeq, f.Seq).
		Stringer(log.FieldFraming, f.Framing).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("Frame rendered")
}
