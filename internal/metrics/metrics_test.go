// ABOUTME: Tests for playback metrics
// ABOUTME: Checks listener counters, stats collectors and HTTP exposure
package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.OnStateChanged(mjpeg.Connecting)
	r.OnStateChanged(mjpeg.Playing)
	r.OnFrameRendered()
	r.OnFrameRendered()
	r.OnPlaybackError(mjpeg.ConnectionLost)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.framesRendered))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.playbackErrors.WithLabelValues("connection lost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stateTransitions.WithLabelValues("playing")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.playbackState))
}

func TestRegisterPlayerStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats := mjpeg.Stats{Received: 7, Dropped: 2, DemuxErrors: 1, Sessions: 3}
	RegisterPlayerStats(reg, func() mjpeg.Stats { return stats })

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "mjpeg_frames_received_total 7")
	assert.Contains(t, string(body), "mjpeg_sessions_total 3")
}
