// ABOUTME: Playback engine driving demux, decode and paced rendering
// ABOUTME: Owns the producer goroutine, state machine and error recovery
package mjpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultJoinTimeout bounds how long Stop waits for the producer.
	DefaultJoinTimeout = 250 * time.Millisecond
	// DefaultErrorSettle delays restarts after a playback error.
	DefaultErrorSettle = 500 * time.Millisecond
)

// Config holds player configuration
type Config struct {
	// Sink receives decoded frames (required)
	Sink Sink

	// Decoder turns payloads into images (default: JPEGDecoder)
	Decoder Decoder

	// Logger for engine events (default: discard)
	Logger *zerolog.Logger

	// CrossFade enables fade timing between consecutive frames
	CrossFade bool

	// Downsample shrinks decoded images by this factor (default: 1)
	Downsample int

	// MaxFrameSize bounds one header plus image (default: DefaultMaxFrameSize)
	MaxFrameSize int

	// JoinTimeout bounds how long Stop waits for the producer (default: 250ms)
	JoinTimeout time.Duration

	// ErrorSettle is the minimum gap between a playback error and the next
	// session start (default: 500ms)
	ErrorSettle time.Duration

	// Now is the clock used for cross-fade timing (default: time.Now)
	Now func() time.Time
}

// Stats contains playback counters accumulated over the player's lifetime
type Stats struct {
	Sessions    int64
	Received    int64
	Rendered    int64
	Dropped     int64
	DemuxErrors int64
	Errors      int64
}

type playerStats struct {
	sessions, received, rendered, dropped, demuxErrors, errors atomic.Int64
}

// Player plays one MJPEG stream at a time, pacing frames to its Sink.
//
// Start, StartSource, Stop and Close may be called from any goroutine,
// including from inside listener callbacks. Listeners see events in the
// order they happened; an event raised from inside a callback is delivered
// after that callback returns.
//
// A stream that ends cleanly at a frame boundary ends the session with
// Disconnected and no OnPlaybackError. Only failures (unreachable source,
// rejected connection, a read error or a stream cut mid-frame) report an
// error, so reconnect logic keyed on errors does not fire on a normal end.
type Player struct {
	config    Config
	log       zerolog.Logger
	listeners listeners

	mu          sync.Mutex // serializes session start and stop
	current     atomic.Pointer[session]
	settleUntil atomic.Int64 // unix nanos
	bg          sync.WaitGroup

	// stateMu orders state changes with the events they produce. Events
	// are delivered by one goroutine at a time, outside every lock.
	stateMu  sync.Mutex
	state    State
	events   []event
	draining bool

	crossFade  atomic.Bool
	downsample atomic.Int32

	stats playerStats
}

// NewPlayer creates a player with the given configuration
func NewPlayer(config Config) (*Player, error) {
	if config.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if config.Decoder == nil {
		config.Decoder = JPEGDecoder{}
	}
	if config.Downsample < 1 {
		config.Downsample = 1
	}
	if config.MaxFrameSize <= 0 {
		config.MaxFrameSize = DefaultMaxFrameSize
	}
	if config.JoinTimeout <= 0 {
		config.JoinTimeout = DefaultJoinTimeout
	}
	if config.ErrorSettle < 0 {
		config.ErrorSettle = 0
	} else if config.ErrorSettle == 0 {
		config.ErrorSettle = DefaultErrorSettle
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}
	logger = logger.With().Str("component", "player").Logger()

	p := &Player{
		config:    config,
		log:       logger,
		listeners: listeners{log: logger},
		state:     Disconnected,
	}
	p.crossFade.Store(config.CrossFade)
	p.downsample.Store(int32(config.Downsample))

	return p, nil
}

// Start begins playback of stream, stopping any active session first.
// A nil stream is reported as ServerUnreachable.
func (p *Player) Start(stream io.ReadCloser) {
	p.start(context.Background(), stream, nil)
}

// StartSource is Start with the stream opened by the producer while the
// player is Connecting. Open errors wrapping a PlaybackError are reported
// as that error, anything else as ServerUnreachable.
func (p *Player) StartSource(ctx context.Context, src Source) {
	if ctx == nil {
		ctx = context.Background()
	}
	p.start(ctx, nil, src)
}

func (p *Player) start(ctx context.Context, stream io.ReadCloser, src Source) {
	p.waitSettle()

	p.mu.Lock()
	defer p.flushEvents()
	defer p.mu.Unlock()

	if cur := p.current.Load(); cur != nil {
		cur.log.Debug().Msg("Stopping previous session")
		p.stopSession(cur)
	}

	s := newSession(ctx, p.log)
	s.source = src
	s.stream = stream

	p.stats.sessions.Add(1)
	p.current.Store(s)
	s.log.Info().Msg("Starting playback")

	p.setState(s, Connecting)
	go p.run(s)
}

// Stop ends the active session. It closes the stream to unblock a pending
// read, releases the gate and waits up to JoinTimeout for the producer.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.flushEvents()
	defer p.mu.Unlock()

	s := p.current.Load()
	if s == nil {
		p.setState(nil, Disconnected)
		return
	}
	s.log.Info().Msg("Stopping playback")
	p.stopSession(s)
}

// Close stops playback and waits for background error handling to finish.
func (p *Player) Close() {
	p.Stop()
	p.bg.Wait()
}

// stopSession tears s down. The caller holds p.mu and flushes events
// after releasing it. Player state is only touched when s is still the
// current session.
func (p *Player) stopSession(s *session) {
	s.running.Store(false)
	s.closeStream()
	s.gate.Release()

	timer := time.NewTimer(p.config.JoinTimeout)
	select {
	case <-s.done:
	case <-timer.C:
		s.log.Warn().Dur("timeout", p.config.JoinTimeout).Msg("Producer did not exit in time, abandoning it")
	}
	timer.Stop()

	if p.current.CompareAndSwap(s, nil) {
		p.setState(nil, Disconnected)
	}
}

// waitSettle blocks until the post-error settle period is over.
func (p *Player) waitSettle() {
	until := p.settleUntil.Load()
	if until == 0 {
		return
	}
	if d := time.Until(time.Unix(0, until)); d > 0 {
		p.log.Debug().Dur("delay", d).Msg("Waiting for error settle before starting")
		time.Sleep(d)
	}
}

// IsRunning reports whether a session is active and its producer running
func (p *Player) IsRunning() bool {
	s := p.current.Load()
	return s != nil && s.running.Load()
}

// SessionID returns the active session's ID, or "" when idle
func (p *Player) SessionID() string {
	if s := p.current.Load(); s != nil {
		return s.id
	}
	return ""
}

// State returns the current playback state
func (p *Player) State() State {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.state
}

// SetCrossFadeEnabled toggles cross-fade timing for subsequent frames
func (p *Player) SetCrossFadeEnabled(enabled bool) {
	p.crossFade.Store(enabled)
}

// CrossFadeEnabled reports whether cross-fade timing is on
func (p *Player) CrossFadeEnabled() bool {
	return p.crossFade.Load()
}

// SetDownsampleHint sets the decode downsample factor for subsequent frames
func (p *Player) SetDownsampleHint(factor int) {
	if factor < 1 {
		factor = 1
	}
	p.downsample.Store(int32(factor))
}

// AddListener registers l for playback events
func (p *Player) AddListener(l Listener) { p.listeners.add(l) }

// RemoveListener unregisters l; it reports whether l was registered
func (p *Player) RemoveListener(l Listener) bool { return p.listeners.remove(l) }

// ClearListeners unregisters all listeners
func (p *Player) ClearListeners() { p.listeners.clear() }

// Stats returns playback statistics
func (p *Player) Stats() Stats {
	return Stats{
		Sessions:    p.stats.sessions.Load(),
		Received:    p.stats.received.Load(),
		Rendered:    p.stats.rendered.Load(),
		Dropped:     p.stats.dropped.Load(),
		DemuxErrors: p.stats.demuxErrors.Load(),
		Errors:      p.stats.errors.Load(),
	}
}

// setState moves the state machine and queues the notification.
// Transitions from a session that is no longer current, repeated states
// and backward edges other than to Disconnected are ignored. A nil session
// means the caller is Stop, which always owns the state. Callers holding
// p.mu must not flush; everyone else calls flushEvents afterwards.
func (p *Player) setState(s *session, to State) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()

	if s != nil && p.current.Load() != s {
		return
	}
	from := p.state
	if from == to || !canTransition(from, to) {
		return
	}
	p.state = to
	p.events = append(p.events, event{kind: eventState, state: to})

	p.log.Debug().Stringer("old_state", from).Stringer("new_state", to).Msg("State changed")
}

// emit queues a non-state event and delivers the queue.
func (p *Player) emit(ev event) {
	p.stateMu.Lock()
	p.events = append(p.events, ev)
	p.stateMu.Unlock()
	p.flushEvents()
}

// flushEvents delivers queued events in order. If another call is already
// delivering, including one further up this goroutine's stack, it returns
// and leaves the events to that call.
func (p *Player) flushEvents() {
	p.stateMu.Lock()
	if p.draining {
		p.stateMu.Unlock()
		return
	}
	p.draining = true
	for len(p.events) > 0 {
		ev := p.events[0]
		p.events = p.events[1:]
		p.stateMu.Unlock()

		switch ev.kind {
		case eventState:
			p.listeners.notifyStateChanged(ev.state)
		case eventFrame:
			p.listeners.notifyFrameRendered()
		case eventError:
			p.listeners.notifyError(ev.err)
		}

		p.stateMu.Lock()
	}
	p.events = nil
	p.draining = false
	p.stateMu.Unlock()
}

// reportError runs the error path on its own goroutine: listeners hear
// about the error first, then the session is stopped, which produces the
// final Disconnected notification.
func (p *Player) reportError(s *session, perr PlaybackError) {
	s.running.Store(false)
	p.stats.errors.Add(1)
	p.settleUntil.Store(time.Now().Add(p.config.ErrorSettle).UnixNano())

	p.bg.Add(1)
	go func() {
		defer p.bg.Done()

		s.log.Error().Stringer("error", perr).Msg("Playback error")
		p.emit(event{kind: eventError, err: perr})

		p.mu.Lock()
		p.stopSession(s)
		p.mu.Unlock()
		p.flushEvents()
	}()
}

// run is the producer goroutine body.
func (p *Player) run(s *session) {
	defer close(s.done)

	if s.source != nil {
		rc, err := s.source.Open(s.ctx)
		if err != nil {
			if !s.running.Load() {
				return
			}
			s.log.Error().Err(err).Msg("Failed to open stream")
			p.reportError(s, classifyOpenError(err))
			return
		}
		if !s.setStream(rc) {
			return
		}
	}

	stream := s.getStream()
	if stream == nil {
		if s.running.Load() {
			s.log.Error().Msg("No input stream")
			p.reportError(s, ServerUnreachable)
		}
		return
	}

	demux := NewDemuxer(stream, WithMaxFrameSize(p.config.MaxFrameSize))
	p.setState(s, Buffering)
	p.flushEvents()

	var (
		fader crossFader
		seq   uint64
	)
	for s.running.Load() {
		frame, err := demux.ReadFrame()
		if err != nil {
			if IsDemuxError(err) {
				p.stats.demuxErrors.Add(1)
				s.log.Warn().Err(err).Msg("Skipping frame")
				continue
			}
			if !s.running.Load() {
				break
			}
			if errors.Is(err, io.EOF) {
				s.log.Info().Msg("End of stream")
				break
			}
			s.log.Error().Err(err).Msg("Error reading frame")
			p.reportError(s, ConnectionLost)
			return
		}

		p.stats.received.Add(1)
		seq++
		if !p.deliver(s, frame, seq, &fader) {
			break
		}
	}

	s.running.Store(false)
	s.closeStream()
	p.setState(s, Disconnected)
	p.flushEvents()
	s.log.Debug().Msg("Producer finished")
}

// deliver decodes one frame, hands it to the sink and waits for the sink
// to release the gate. It returns false once the session is stopping.
func (p *Player) deliver(s *session, frame *Frame, seq uint64, fader *crossFader) bool {
	img, err := p.config.Decoder.Decode(frame.Data, int(p.downsample.Load()))
	if err != nil || img == nil {
		p.stats.dropped.Add(1)
		s.log.Warn().Err(err).Int("bytes", len(frame.Data)).Uint64("seq", seq).Msg("Failed to decode frame")
		return true
	}

	now := p.config.Now()
	df := &DecodedFrame{
		Seq:       seq,
		Image:     img,
		DecodedAt: now,
		Framing:   frame.Framing,
		Header:    frame.Header,
		release:   s.gate.Release,
	}

	if p.crossFade.Load() {
		prev, fade, ok := fader.next(img, now)
		if !ok {
			p.stats.dropped.Add(1)
			s.log.Debug().Uint64("seq", seq).Msg("Clock went backwards, skipping frame")
			return true
		}
		df.Previous, df.Fade = prev, fade
	} else {
		fader.mark(img, now)
	}

	p.config.Sink.Render(df)

	if p.State() != Playing {
		p.setState(s, Playing)
		p.flushEvents()
	}

	if err := s.gate.Acquire(s.ctx); err != nil {
		return false
	}
	if !s.running.Load() {
		return false
	}

	p.stats.rendered.Add(1)
	p.emit(event{kind: eventFrame})
	return true
}

type eventKind int

const (
	eventState eventKind = iota
	eventFrame
	eventError
)

type event struct {
	kind  eventKind
	state State
	err   PlaybackError
}

func classifyOpenError(err error) PlaybackError {
	var perr PlaybackError
	if errors.As(err, &perr) {
		return perr
	}
	return ServerUnreachable
}
