// ABOUTME: Stream sources for the mjpeg player
// ABOUTME: Opens file, HTTP and WebSocket byte streams with classified errors
// Package source provides mjpeg.Source implementations.
//
// Open failures wrap an mjpeg.PlaybackError so the player can report them
// precisely: a peer that answered but refused the stream is
// ConnectionRejected, anything that never got an answer is
// ServerUnreachable.
//
// Example:
//
//	src, err := source.Parse("http://camera.local:8080/stream")
//	if err != nil {
//	    return err
//	}
//	player.StartSource(ctx, src)
package source
