// ABOUTME: Playback state and playback error enumerations
// ABOUTME: Defines the engine state machine values reported to listeners
package mjpeg

import "fmt"

// State is the playback lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Buffering
	Playing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Buffering:
		return "buffering"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// canTransition reports whether from -> to is a legal edge: forward along
// Disconnected, Connecting, Buffering, Playing, or back to Disconnected.
func canTransition(from, to State) bool {
	return to == Disconnected || to > from
}

// PlaybackError is a session-fatal error reported to listeners. It
// implements error so sources can wrap it to classify open failures.
type PlaybackError int

const (
	ServerUnreachable PlaybackError = iota + 1
	ConnectionRejected
	ConnectionLost
)

func (e PlaybackError) String() string {
	switch e {
	case ServerUnreachable:
		return "server unreachable"
	case ConnectionRejected:
		return "connection rejected"
	case ConnectionLost:
		return "connection lost"
	default:
		return fmt.Sprintf("PlaybackError(%d)", int(e))
	}
}

func (e PlaybackError) Error() string {
	return "mjpeg: " + e.String()
}
