// ABOUTME: Motion-JPEG demuxing and playback library
// ABOUTME: Splits MJPEG byte streams into frames and paces them to a render sink
// Package mjpeg turns a continuous Motion-JPEG byte stream into a paced
// sequence of decoded images.
//
// The package has two halves:
//   - Demuxer: splits a raw stream into JPEG payloads. Each frame is either
//     preceded by a text header carrying Content-Length (the
//     multipart/x-mixed-replace convention) or delimited only by its own
//     SOI/EOI markers. The choice is made per frame.
//   - Player: runs a producer goroutine that demuxes, decodes and hands each
//     image to a Sink, waiting for the sink to acknowledge the frame before
//     decoding the next one. State changes, rendered frames and playback
//     errors are fanned out to registered Listeners.
//
// Example:
//
//	player, err := mjpeg.NewPlayer(mjpeg.Config{
//	    Sink: mjpeg.SinkFunc(func(f *mjpeg.DecodedFrame) {
//	        show(f.Image)
//	        f.Done()
//	    }),
//	})
//	player.AddListener(&mjpeg.ListenerFuncs{
//	    StateChanged: func(s mjpeg.State) { log.Println("state:", s) },
//	})
//	player.StartSource(ctx, source)
//	defer player.Stop()
package mjpeg
