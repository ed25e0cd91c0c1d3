package player

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

const iinaLauncher = "open"

var errUnsupported = errors.New("not supported on IINA")

// IINA implements Player for the macOS IINA app. IINA exposes no IPC socket, so the only events
// are Playing once the app is launched and Exited when it quits.
type IINA struct {
	cmd       *exec.Cmd
	exited    chan struct{}
	quit      chan struct{}
	events    chan Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewIINA() *IINA {
	return &IINA{
		exited: make(chan struct{}),
		quit:   make(chan struct{}),
		events: make(chan Event, 4),
	}
}

// Load launches IINA and waits for the app to quit in the background.
func (m *IINA) Load(_ context.Context, req Request) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("IINA is only supported on macOS")
	}

	safeURL, err := sanitizeMediaTarget(req.URL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}
	req.URL = safeURL

	m.cmd = exec.Command(iinaLauncher, iinaArgs(req)...)
	m.cmd.SysProcAttr = ownProcessGroup()
	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("LaunchServices failed to invoke IINA: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	m.events <- Event{Kind: EventPlaying}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-m.exited:
			select {
			case m.events <- Event{Kind: EventExited}:
			case <-m.quit:
			}
		case <-m.quit:
		}
	}()

	return nil
}

// iinaArgs reuses the mpv mapping. IINA forwards options prefixed with --mpv- to its embedded mpv.
func iinaArgs(req Request) []string {
	args := []string{"-W", "-n", "-a", "IINA", "--args"}

	for _, arg := range mpvArgs("", req) {
		switch {
		case strings.HasPrefix(arg, "--input-ipc-server"), arg == "--no-terminal", arg == "--really-quiet":
		case strings.HasPrefix(arg, "--"):
			args = append(args, "--mpv-"+strings.TrimPrefix(arg, "--"))
		default:
			args = append(args, arg)
		}
	}

	return args
}

func (m *IINA) Events() <-chan Event {
	return m.events
}

func (m *IINA) Wait() <-chan struct{} {
	return m.exited
}

func (m *IINA) TogglePause() error                 { return errUnsupported }
func (m *IINA) GetTimePos() (float64, error)       { return 0, errUnsupported }
func (m *IINA) GetCacheDuration() (float64, error) { return 0, errUnsupported }

func (m *IINA) IsRunning() bool {
	if m.cmd == nil {
		return false
	}

	select {
	case <-m.exited:
		return false
	default:
		return true
	}
}

func (m *IINA) Close() error {
	m.closeOnce.Do(func() {
		close(m.quit)
		if m.IsRunning() {
			_ = killGroup(m.cmd)
			<-m.exited
		}
		m.wg.Wait()
		close(m.events)
	})
	return nil
}
