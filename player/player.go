// Package player drives the external process that decodes and renders a stream.
// The primary backend is mpv over its JSON-IPC interface; IINA is supported on macOS.
package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/peyitv/peyitv/buffer"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
)

// ErrExited is returned by Load when the player process dies before it can be controlled.
var ErrExited = errors.New("player exited")

// DecodeError is reported when the player gives up on a stream it could fetch but not play.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode: " + e.Reason
}

// Surface is where the video is rendered.
type Surface struct {
	Title      string
	Fullscreen bool
	KeepAwake  bool
	// WindowID embeds the video into an existing window when non-zero.
	WindowID int64
}

// Request is everything a backend needs to start playing one stream.
type Request struct {
	URL      string
	Protocol stream.Protocol
	Config   network.RequestConfig
	Policy   buffer.Policy
	Surface  Surface
}

// EventKind classifies what the player reported.
type EventKind int

const (
	// EventBuffering means the player is filling the buffer before first playback.
	EventBuffering EventKind = iota
	// EventPlaying means frames are being rendered.
	EventPlaying
	// EventStalled means the buffer ran dry after playback had begun.
	EventStalled
	// EventError carries a fatal playback error in Event.Err.
	EventError
	// EventExited means the process ended on its own.
	EventExited
)

func (k EventKind) String() string {
	switch k {
	case EventBuffering:
		return "buffering"
	case EventPlaying:
		return "playing"
	case EventStalled:
		return "stalled"
	case EventError:
		return "error"
	case EventExited:
		return "exited"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a state change reported by a backend.
type Event struct {
	Kind EventKind
	Err  error
}

// Player is a playback backend. A Player plays at most one stream during its lifetime.
type Player interface {
	// Load starts the process and begins playback as soon as the start threshold is buffered.
	Load(ctx context.Context, req Request) error

	// Events delivers state changes. The channel is closed by Close once every
	// background goroutine of the player has returned.
	Events() <-chan Event

	// TogglePause inverts the pause state.
	TogglePause() error

	// GetTimePos returns the playback position in seconds.
	GetTimePos() (float64, error)

	// GetCacheDuration returns how many seconds of media are buffered ahead.
	GetCacheDuration() (float64, error)

	// IsRunning reports whether the process is alive.
	IsRunning() bool

	// Close stops the process, killing it if it does not quit in time. It is safe to call more than once.
	Close() error

	// Wait returns a channel closed when the process exits.
	Wait() <-chan struct{}
}

// Factory creates a fresh player for each playback session.
type Factory func() (Player, error)

// Backends lists the supported player names.
var Backends = []string{"mpv", "iina"}

// New returns the backend registered under name.
func New(name string) (Player, error) {
	switch name {
	case "mpv":
		return NewMPV(), nil
	case "iina":
		return NewIINA(), nil
	default:
		return nil, fmt.Errorf("unknown player %q", name)
	}
}

// Available checks that the binary behind the backend can be found.
func Available(name string) error {
	var bin string
	switch name {
	case "mpv":
		bin = mpvBinary
	case "iina":
		bin = iinaLauncher
	default:
		return fmt.Errorf("unknown player %q", name)
	}

	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", bin, err)
	}
	return nil
}
