// Package session owns the playback of at most one stream at a time.
//
// Start and Release are the only mutators. A Start while a stream is active releases it first,
// and Release returns only once the previous player has exited and its event goroutine has
// returned, so two players never overlap.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/peyitv/peyitv/buffer"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/media"
	"github.com/peyitv/peyitv/metrics"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/player"
	"github.com/peyitv/peyitv/stream"
)

var (
	// ErrPlayerExited is reported when the player process ends before it rendered anything.
	ErrPlayerExited = errors.New("player exited before playback started")
	// ErrReleased is returned by a Start that was interrupted by Release.
	ErrReleased = errors.New("released while starting")
)

// Listener is notified of every state change. err is set on the Released transition of a failed
// session. Listeners run with the session lock held and must not call back into the Session.
type Listener func(state State, err error)

// Options configure a Session.
type Options struct {
	// Factory creates the player for each start.
	Factory player.Factory
	// Client performs the transport open. Defaults to network.NewClient(Timeout, false).
	Client *http.Client
	// Timeout bounds the transport open.
	Timeout time.Duration
	// DefaultIdentification is sent when a stream does not set its own.
	DefaultIdentification string
	Policy                buffer.Policy
	Surface               player.Surface
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Session is the playback owner.
type Session struct {
	opts Options

	// op serializes Start and Release, including releases triggered by player events.
	op sync.Mutex

	mu         sync.Mutex
	state      State
	generation uint64
	current    *stream.Descriptor
	source     media.Source
	player     player.Player
	loop       chan struct{}
	lastErr    error
	startedAt  time.Time
	listeners  []Listener

	// cancelStart interrupts the Start in progress, if any.
	cancelStart context.CancelCauseFunc
}

// New returns an idle session.
func New(opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	if opts.Client == nil {
		opts.Client = network.NewClient(opts.Timeout, false)
	}

	return &Session{opts: opts}
}

// Subscribe adds a state listener.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the stream being played, or nil.
func (s *Session) Current() *stream.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Source returns the opened media source of the current stream, or nil.
func (s *Session) Source() media.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Player returns the active player, or nil.
func (s *Session) Player() player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

// LastError returns the error that ended the most recent session, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Start releases any active stream and starts playing d. On failure everything acquired is
// released again and the session is left Idle with LastError set. A Release while Start is
// still opening the stream aborts it with ErrReleased and leaves LastError unset.
func (s *Session) Start(ctx context.Context, d *stream.Descriptor) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.release(nil)

	startCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	s.cancelStart = cancel
	s.generation++
	gen := s.generation
	s.current = d
	s.lastErr = nil
	s.startedAt = time.Now()
	s.transition(Starting, nil)
	s.mu.Unlock()

	s.opts.Metrics.ObserveStart(d.Protocol().String())
	log.WithFields(log.Fields{"stream": d.Name(), "protocol": d.Protocol()}).Info("starting playback")

	err := s.acquire(startCtx, gen, d)

	s.mu.Lock()
	s.cancelStart = nil
	s.mu.Unlock()

	if err != nil {
		if errors.Is(context.Cause(startCtx), ErrReleased) {
			log.WithFields(log.Fields{"stream": d.Name()}).Info("start interrupted")
			s.release(nil)
			return fmt.Errorf("start %s: %w", d.Name(), ErrReleased)
		}

		err = fmt.Errorf("start %s: %w", d.Name(), err)
		s.release(err)
		return err
	}

	return nil
}

func (s *Session) acquire(ctx context.Context, gen uint64, d *stream.Descriptor) error {
	config := network.Merge(d.Headers(), s.opts.DefaultIdentification)
	source := media.New(d, network.NewDataSource(s.opts.Client, config))

	openCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := source.Open(openCtx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.opts.Factory()
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}

	s.mu.Lock()
	s.source = source
	s.player = p
	s.mu.Unlock()

	surface := s.opts.Surface
	if surface.Title == "" {
		surface.Title = d.Name()
	}

	err = p.Load(ctx, player.Request{
		URL:      d.URL(),
		Protocol: source.Protocol(),
		Config:   config,
		Policy:   s.opts.Policy,
		Surface:  surface,
	})
	if err != nil {
		if errors.Is(err, player.ErrExited) {
			return fmt.Errorf("%w: %v", ErrPlayerExited, err)
		}
		return fmt.Errorf("load player: %w", err)
	}

	loop := make(chan struct{})
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()

	go s.watch(gen, p, loop)

	return nil
}

// watch forwards player events until the player closes its channel.
func (s *Session) watch(gen uint64, p player.Player, done chan struct{}) {
	defer close(done)

	for ev := range p.Events() {
		s.handle(gen, ev)
	}
}

func (s *Session) handle(gen uint64, ev player.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}

	switch ev.Kind {
	case player.EventBuffering:
		s.transition(Buffering, nil)
	case player.EventPlaying:
		if s.state == Starting || s.state == Buffering {
			s.opts.Metrics.ObserveStartup(time.Since(s.startedAt))
		}
		s.transition(Playing, nil)
	case player.EventStalled:
		s.transition(Stalled, nil)
	case player.EventError:
		go s.releaseGeneration(gen, ev.Err)
	case player.EventExited:
		var err error
		if s.state == Starting || s.state == Buffering {
			err = ErrPlayerExited
		}
		go s.releaseGeneration(gen, err)
	}
}

// releaseGeneration releases the session unless it has moved on since gen.
func (s *Session) releaseGeneration(gen uint64, err error) {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()

	if !stale {
		s.release(err)
	}
}

// Release stops the active stream. It is safe to call in any state and more than once. A Start
// in progress is interrupted first, so Release does not wait for the stream to open.
func (s *Session) Release() {
	s.mu.Lock()
	if s.cancelStart != nil {
		s.cancelStart(ErrReleased)
	}
	s.mu.Unlock()

	s.op.Lock()
	defer s.op.Unlock()
	s.release(nil)
}

func (s *Session) release(err error) {
	s.mu.Lock()
	p, loop, active := s.player, s.loop, s.state.Active()
	name := ""
	if s.current != nil {
		name = s.current.Name()
	}
	s.player, s.loop = nil, nil
	s.generation++
	s.mu.Unlock()

	if p != nil {
		if closeErr := p.Close(); closeErr != nil {
			log.Warnf("close player: %v", closeErr)
		}
	}

	if loop != nil {
		<-loop
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = err
		s.opts.Metrics.ObserveFailure(failureKind(err))
		log.WithFields(log.Fields{"stream": name}).Errorf("playback failed: %v", err)
	}

	s.current = nil
	s.source = nil

	if active {
		s.transition(Released, err)
		s.transition(Idle, nil)
	}
}

// transition moves to next if the state machine allows it. Callers hold mu.
func (s *Session) transition(next State, err error) {
	prev := s.state
	if !prev.CanTransition(next) {
		log.Debugf("session: ignoring %s -> %s", prev, next)
		return
	}

	s.state = next
	s.opts.Metrics.ObserveTransition(prev.String(), next.String())
	log.WithFields(log.Fields{"from": prev.String(), "to": next.String()}).Debug("session transition")

	for _, l := range s.listeners {
		l(next, err)
	}
}

func failureKind(err error) string {
	var (
		transport *media.TransportError
		decode    *player.DecodeError
	)

	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.As(err, &decode):
		return "decode"
	case errors.Is(err, ErrPlayerExited):
		return "exited"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
