// ABOUTME: Tests for viewer orchestration
// ABOUTME: Tests source resolution, reconnect after errors and shutdown
package app

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/mjpeg-go/internal/config"
	"github.com/harperreed/mjpeg-go/pkg/mjpeg"
	"github.com/harperreed/mjpeg-go/pkg/source"
)

func testViewerConfig(src string) config.ViewerConfig {
	cfg := config.Default().Viewer
	cfg.Source = src
	cfg.NoTUI = true
	cfg.ErrorSettle = time.Millisecond
	return cfg
}

func encodedFrame(t *testing.T) []byte {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, jpeg.Encode(&img, image.NewGray(image.Rect(0, 0, 8, 8)), nil))

	var framed bytes.Buffer
	require.NoError(t, mjpeg.NewWriter(&framed).WriteFrame(img.Bytes()))
	return framed.Bytes()
}

func TestResolveExplicitSource(t *testing.T) {
	v := New(Config{Viewer: testViewerConfig("http://cam.local/stream")})

	src, name, err := v.resolveSource(context.Background())
	require.NoError(t, err)
	assert.Equal(t, source.HTTP{URL: "http://cam.local/stream"}, src)
	assert.Equal(t, "http://cam.local/stream", name)
}

func TestRunRejectsUnsupportedSource(t *testing.T) {
	v := New(Config{Viewer: testViewerConfig("rtsp://cam.local/live")})
	assert.Error(t, v.Run(context.Background()))
}

func TestViewerReconnectsAfterError(t *testing.T) {
	frame := encodedFrame(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpeg.DefaultBoundary)
		w.Write(frame)
		w.Write(frame)
	}))
	defer srv.Close()

	rendered := make(chan uint64, 10)
	cfg := testViewerConfig(srv.URL)
	cfg.Reconnect = true
	cfg.ReconnectDelay = 10 * time.Millisecond

	v := New(Config{
		Viewer: cfg,
		Sink: mjpeg.SinkFunc(func(f *mjpeg.DecodedFrame) {
			rendered <- f.Seq
			f.Done()
		}),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-rendered:
		case <-time.After(3 * time.Second):
			t.Fatalf("frame %d not rendered", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("viewer did not shut down")
	}

	assert.GreaterOrEqual(t, hits.Load(), int32(2))
	stats := v.Player().Stats()
	assert.Equal(t, int64(1), stats.Errors)
	assert.GreaterOrEqual(t, stats.Sessions, int64(2))
}
