// ABOUTME: Prometheus metrics for MJPEG playback
// ABOUTME: Listener-driven counters plus collectors over player statistics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

// Recorder implements mjpeg.Listener and turns playback events into metrics.
type Recorder struct {
	framesRendered   prometheus.Counter
	playbackErrors   *prometheus.CounterVec
	stateTransitions *prometheus.CounterVec
	playbackState    prometheus.Gauge
}

// NewRecorder registers the playback metrics with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		framesRendered: f.NewCounter(prometheus.CounterOpts{
			Name: "mjpeg_frames_rendered_total",
			Help: "Frames acknowledged by the render sink",
		}),
		playbackErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mjpeg_playback_errors_total",
			Help: "Session-fatal playback errors by kind",
		}, []string{"error"}),
		stateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mjpeg_state_transitions_total",
			Help: "Playback state transitions by target state",
		}, []string{"state"}),
		playbackState: f.NewGauge(prometheus.GaugeOpts{
			Name: "mjpeg_playback_state",
			Help: "Current playback state (0=disconnected, 1=connecting, 2=buffering, 3=playing)",
		}),
	}
}

func (r *Recorder) OnStateChanged(state mjpeg.State) {
	r.stateTransitions.WithLabelValues(state.String()).Inc()
	r.playbackState.Set(float64(state))
}

func (r *Recorder) OnFrameRendered() {
	r.framesRendered.Inc()
}

func (r *Recorder) OnPlaybackError(err mjpeg.PlaybackError) {
	r.playbackErrors.WithLabelValues(err.String()).Inc()
}

// RegisterPlayerStats exposes counters read from stats at scrape time.
func RegisterPlayerStats(reg prometheus.Registerer, stats func() mjpeg.Stats) {
	f := promauto.With(reg)
	counter := func(name, help string, value func(mjpeg.Stats) int64) {
		f.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
			return float64(value(stats()))
		})
	}

	counter("mjpeg_frames_received_total", "Frames extracted by the demuxer",
		func(s mjpeg.Stats) int64 { return s.Received })
	counter("mjpeg_frames_dropped_total", "Frames dropped before rendering",
		func(s mjpeg.Stats) int64 { return s.Dropped })
	counter("mjpeg_demux_errors_total", "Frames skipped because of framing errors",
		func(s mjpeg.Stats) int64 { return s.DemuxErrors })
	counter("mjpeg_sessions_total", "Playback sessions started",
		func(s mjpeg.Stats) int64 { return s.Sessions })
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
