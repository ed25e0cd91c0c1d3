package player

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peyitv/peyitv/constant"
	"github.com/peyitv/peyitv/log"
)

const (
	mpvBinary = "mpv"

	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

// MPV implements Player with an mpv process controlled over JSON-IPC.
type MPV struct {
	binary     string
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{} // closed when mpv process exits
	quit       chan struct{} // closed by Close
	events     chan Event
	listener   *EventListener
	wg         sync.WaitGroup
	closeOnce  sync.Once
	mu         sync.Mutex // Protects socket writes
}

// NewMPV creates a new MPV player instance (does not start playback).
func NewMPV() *MPV {
	return &MPV{
		binary: mpvBinary,
		exited: make(chan struct{}),
		quit:   make(chan struct{}),
		events: make(chan Event, 16),
	}
}

// Load starts mpv with the stream and subscribes to its cache state.
func (m *MPV) Load(ctx context.Context, req Request) error {
	safeURL, err := sanitizeMediaTarget(req.URL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	req.URL = safeURL

	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.App, randomBytes))
	}

	args := mpvArgs(m.socketPath, req)
	log.Debugf("starting %s %s", m.binary, strings.Join(args, " "))

	m.cmd = exec.Command(m.binary, args...)

	// Detach from parent process group so a terminal interrupt is handled by us, not mpv.
	m.cmd.SysProcAttr = ownProcessGroup()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(ctx); err != nil {
		m.kill()
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	tracker := newTracker()
	resume := seconds(req.Policy.BufferForResumeAfterStall)
	m.listener = NewEventListener(m.socketPath, func(name string, data interface{}) {
		ev, ok := tracker.translate(name, data)
		if !ok {
			return
		}

		if ev.Kind == EventPlaying && tracker.firstStart() {
			// The start threshold only applies once.
			if err := m.Set("cache-pause-wait", resume); err != nil {
				log.Warnf("set resume threshold: %v", err)
			}
		}

		m.emit(ev)
	})

	if err := m.listener.Start(); err != nil {
		m.kill()
		return fmt.Errorf("listen to mpv: %w", err)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-m.exited:
			m.emit(Event{Kind: EventExited})
		case <-m.quit:
		}
	}()

	return nil
}

// emit delivers an event unless the player is being closed.
func (m *MPV) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.quit:
	}
}

// Events implements Player.
func (m *MPV) Events() <-chan Event {
	return m.events
}

// Wait returns a channel that is closed when the mpv process exits.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket(ctx context.Context) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.exited:
			return ErrExited
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// kill stops a process that never became controllable.
func (m *MPV) kill() {
	select {
	case <-m.exited:
	default:
		log.Warn("killing mpv: socket never became ready")
		_ = killGroup(m.cmd)
		<-m.exited
	}
	_ = os.Remove(m.socketPath)
}

// GetTimePos returns the current playback position in seconds.
func (m *MPV) GetTimePos() (float64, error) {
	return m.getFloatProperty("time-pos")
}

// GetCacheDuration returns the buffered duration ahead of the playback position.
func (m *MPV) GetCacheDuration() (float64, error) {
	return m.getFloatProperty("demuxer-cache-duration")
}

// IsRunning reports whether mpv is responding to IPC commands.
func (m *MPV) IsRunning() bool {
	if m.socketPath == "" || m.cmd == nil {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
	}

	_, err := m.sendCommand([]interface{}{"get_property", "pid"})
	return err == nil
}

// Close shuts down the mpv process and waits for every goroutine it started.
func (m *MPV) Close() error {
	m.closeOnce.Do(func() {
		close(m.quit)

		if m.cmd != nil && m.cmd.Process != nil {
			select {
			case <-m.exited:
			default:
				_, _ = m.sendCommand([]interface{}{"quit"})

				select {
				case <-m.exited:
				case <-time.After(quitTimeout):
					log.Warnf("mpv did not quit within %s, killing it", quitTimeout)
					_ = killGroup(m.cmd)
					<-m.exited
				}
			}
		}

		if m.listener != nil {
			m.listener.Stop()
		}

		m.wg.Wait()
		close(m.events)

		if m.socketPath != "" {
			_ = os.Remove(m.socketPath)
		}
	})

	return nil
}

// TogglePause toggles the pause state.
func (m *MPV) TogglePause() error {
	_, err := m.sendCommand([]interface{}{"cycle", "pause"})
	return err
}

// Set a property
func (m *MPV) Set(property string, value interface{}) error {
	_, err := m.sendCommand([]interface{}{"set_property", property, value})
	return err
}

// getFloatProperty is a helper to retrieve a float64 mpv property via IPC.
func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand([]interface{}{"get_property", name})
	if err != nil {
		return 0, err
	}

	if data == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}

	return val, nil
}

// mpvArgs maps a request onto mpv options. The user's mpv.conf still applies to everything not set here.
//
// The demuxer reads at least MinBuffer ahead and caches at most MaxBuffer. Playback starts paused
// for cache and is released once BufferForStart is queued; the listener lowers that wait to
// BufferForResumeAfterStall after the first start.
func mpvArgs(socketPath string, req Request) []string {
	title := sanitizeTitle(req.Surface.Title)

	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socketPath,
		"--force-media-title=" + title,
		"--title=" + title,
		"--force-window=yes",
		"--cache=yes",
		"--demuxer-readahead-secs=" + seconds(req.Policy.MinBuffer),
		"--cache-secs=" + seconds(req.Policy.MaxBuffer),
		"--cache-pause=yes",
		"--cache-pause-initial=yes",
		"--cache-pause-wait=" + seconds(req.Policy.BufferForStart),
	}

	if req.Config.Identification != "" {
		args = append(args, "--user-agent="+req.Config.Identification)
	}

	// the -append form takes a single item, so commas in values are kept as they are
	for _, f := range req.Config.Fields() {
		args = append(args, "--http-header-fields-append="+f)
	}

	if req.Surface.Fullscreen {
		args = append(args, "--fs")
	}

	if req.Surface.KeepAwake {
		args = append(args, "--stop-screensaver=yes")
	} else {
		args = append(args, "--stop-screensaver=no")
	}

	if req.Surface.WindowID != 0 {
		args = append(args, "--wid="+strconv.FormatInt(req.Surface.WindowID, 10))
	}

	return append(args, req.URL)
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv as a positional argument.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	u, err := url.Parse(l)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return l, nil
	default:
		return "", fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
}

// sanitizeTitle cleans up the title for mpv
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
