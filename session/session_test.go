package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peyitv/peyitv/buffer"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/media"
	"github.com/peyitv/peyitv/metrics"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/player"
	"github.com/peyitv/peyitv/stream"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"go.uber.org/goleak"
)

// recorder logs every acquire and release of the fake players it hands out.
type recorder struct {
	mu        sync.Mutex
	log       []string
	active    int
	maxActive int
	players   []*fakePlayer
	loadErr   error
}

func (r *recorder) factory() (player.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &fakePlayer{rec: r, events: make(chan player.Event, 8), exited: make(chan struct{})}
	r.players = append(r.players, p)
	return p, nil
}

func (r *recorder) record(entry string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log = append(r.log, entry)
	r.active += delta
	if r.active > r.maxActive {
		r.maxActive = r.active
	}
}

func (r *recorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *recorder) last() *fakePlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players[len(r.players)-1]
}

type fakePlayer struct {
	rec       *recorder
	title     string
	request   player.Request
	events    chan player.Event
	exited    chan struct{}
	closeOnce sync.Once
	loaded    bool
}

func (f *fakePlayer) Load(_ context.Context, req player.Request) error {
	if f.rec.loadErr != nil {
		return f.rec.loadErr
	}
	f.request = req
	f.title = req.Surface.Title
	f.loaded = true
	f.rec.record("acquire "+f.title, 1)
	return nil
}

func (f *fakePlayer) Events() <-chan player.Event { return f.events }

func (f *fakePlayer) emit(kind player.EventKind, err error) {
	f.events <- player.Event{Kind: kind, Err: err}
}

func (f *fakePlayer) TogglePause() error                 { return nil }
func (f *fakePlayer) GetTimePos() (float64, error)       { return 0, nil }
func (f *fakePlayer) GetCacheDuration() (float64, error) { return 0, nil }
func (f *fakePlayer) IsRunning() bool                    { return f.loaded }
func (f *fakePlayer) Wait() <-chan struct{}              { return f.exited }

func (f *fakePlayer) Close() error {
	f.closeOnce.Do(func() {
		if f.loaded {
			f.rec.record("release "+f.title, -1)
		}
		close(f.exited)
		close(f.events)
	})
	return nil
}

const vodPlaylist = "#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXTINF:6.0,\nseg0.ts\n#EXT-X-ENDLIST\n"

func newServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, vodPlaylist)
	})
	mux.HandleFunc("/b.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "x")
	})
	mux.HandleFunc("/gone.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/slow.mp4", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
			w.Header().Set("Content-Type", "video/mp4")
			_, _ = io.WriteString(w, "x")
		}
	})
	return httptest.NewServer(mux)
}

// states collects the notified states of a session.
type states struct {
	mu  sync.Mutex
	got []State
	ch  chan State
}

func watchStates(s *Session) *states {
	st := &states{ch: make(chan State, 32)}
	s.Subscribe(func(state State, _ error) {
		st.mu.Lock()
		st.got = append(st.got, state)
		st.mu.Unlock()
		st.ch <- state
	})
	return st
}

func (st *states) all() []State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]State(nil), st.got...)
}

// waitFor blocks until want is notified.
func (st *states) waitFor(want State) bool {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-st.ch:
			if got == want {
				return true
			}
		case <-timeout:
			return false
		}
	}
}

func TestSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	Convey("Given a session with a recording player factory", t, func() {
		server := newServer()
		client := network.NewClient(5*time.Second, false)
		Reset(func() {
			server.Close()
			client.CloseIdleConnections()
		})

		rec := &recorder{}
		m := metrics.New()
		s := New(Options{
			Factory:               rec.factory,
			Client:                client,
			Timeout:               5 * time.Second,
			DefaultIdentification: "PeyiTV/test",
			Policy:                buffer.Default,
			Surface:               player.Surface{Fullscreen: true, KeepAwake: true},
			Metrics:               m,
		})
		Reset(s.Release)
		notified := watchStates(s)
		ctx := context.Background()

		a := stream.New("A", server.URL+"/a.m3u8", nil)
		b := stream.New("B", server.URL+"/b.mp4", map[string]string{"Referer": "https://y/", "user-agent": "VLC/3.0.18"})

		Convey("A new session is idle", func() {
			So(s.State(), ShouldEqual, Idle)
			So(s.Current(), ShouldBeNil)
			So(s.Player(), ShouldBeNil)
		})

		Convey("Starting a stream", func() {
			So(s.Start(ctx, a), ShouldBeNil)
			So(s.State(), ShouldEqual, Starting)
			So(s.Current(), ShouldEqual, a)
			So(s.Source().Protocol(), ShouldEqual, stream.SegmentedAdaptive)

			p := rec.last()

			Convey("binds the request and the surface", func() {
				So(p.request.URL, ShouldEqual, a.URL())
				So(p.request.Config.Identification, ShouldEqual, "PeyiTV/test")
				So(p.request.Policy, ShouldResemble, buffer.Default)
				So(p.request.Surface, ShouldResemble, player.Surface{Title: "A", Fullscreen: true, KeepAwake: true})
			})

			Convey("follows the player through buffering, playing and stalling", func() {
				p.emit(player.EventBuffering, nil)
				So(notified.waitFor(Buffering), ShouldBeTrue)
				p.emit(player.EventPlaying, nil)
				So(notified.waitFor(Playing), ShouldBeTrue)
				p.emit(player.EventStalled, nil)
				So(notified.waitFor(Stalled), ShouldBeTrue)
				p.emit(player.EventPlaying, nil)
				So(notified.waitFor(Playing), ShouldBeTrue)

				So(s.State(), ShouldEqual, Playing)
				So(testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP peyitv_session_stall_total Buffer underruns after playback had started
# TYPE peyitv_session_stall_total counter
peyitv_session_stall_total 1
`), "peyitv_session_stall_total"), ShouldBeNil)
			})

			Convey("ignores events the state machine does not allow", func() {
				p.emit(player.EventStalled, nil)
				p.emit(player.EventPlaying, nil)
				So(notified.waitFor(Playing), ShouldBeTrue)
				So(notified.all(), ShouldResemble, []State{Starting, Playing})
			})

			Convey("Release ends in Idle and is idempotent", func() {
				s.Release()
				So(s.State(), ShouldEqual, Idle)
				s.Release()
				So(s.State(), ShouldEqual, Idle)

				So(notified.all(), ShouldResemble, []State{Starting, Released, Idle})
				So(rec.entries(), ShouldResemble, []string{"acquire A", "release A"})
				So(s.Current(), ShouldBeNil)
				So(s.LastError(), ShouldBeNil)
			})

			Convey("Starting another stream releases the first before acquiring", func() {
				So(s.Start(ctx, b), ShouldBeNil)
				So(rec.entries(), ShouldResemble, []string{"acquire A", "release A", "acquire B"})
				So(rec.maxActive, ShouldEqual, 1)

				Convey("with the second stream's own identification", func() {
					second := rec.last()
					So(second.request.Config.Identification, ShouldEqual, "VLC/3.0.18")
					So(second.request.Config.ExtraHeaders, ShouldResemble, map[string]string{"Referer": "https://y/"})
				})
			})

			Convey("A decode error releases the session", func() {
				p.emit(player.EventError, &player.DecodeError{Reason: "unrecognized file format"})
				So(notified.waitFor(Idle), ShouldBeTrue)

				var decode *player.DecodeError
				So(errors.As(s.LastError(), &decode), ShouldBeTrue)
				So(rec.entries(), ShouldResemble, []string{"acquire A", "release A"})
			})

			Convey("The player exiting before playback is an error", func() {
				p.emit(player.EventExited, nil)
				So(notified.waitFor(Idle), ShouldBeTrue)
				So(errors.Is(s.LastError(), ErrPlayerExited), ShouldBeTrue)
			})

			Convey("The player exiting after playback is a normal end", func() {
				p.emit(player.EventPlaying, nil)
				p.emit(player.EventExited, nil)
				So(notified.waitFor(Idle), ShouldBeTrue)
				So(s.LastError(), ShouldBeNil)
			})
		})

		Convey("A stream that cannot be opened rolls back", func() {
			gone := stream.New("Gone", server.URL+"/gone.mp4", nil)
			err := s.Start(ctx, gone)

			var transport *media.TransportError
			So(errors.As(err, &transport), ShouldBeTrue)
			So(transport.StatusCode, ShouldEqual, http.StatusNotFound)

			So(s.State(), ShouldEqual, Idle)
			So(s.LastError(), ShouldEqual, err)
			So(notified.all(), ShouldResemble, []State{Starting, Released, Idle})
			So(rec.entries(), ShouldBeEmpty)
		})

		Convey("A player that fails to load is closed again", func() {
			rec.loadErr = fmt.Errorf("socket: %w", player.ErrExited)
			err := s.Start(ctx, a)

			So(errors.Is(err, ErrPlayerExited), ShouldBeTrue)
			So(s.State(), ShouldEqual, Idle)
			So(s.Player(), ShouldBeNil)
			_, open := <-rec.last().Events()
			So(open, ShouldBeFalse)
		})

		Convey("A cancelled start leaves the session idle", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			So(s.Start(cancelled, a), ShouldNotBeNil)
			So(s.State(), ShouldEqual, Idle)
		})

		Convey("Release interrupts a start that is still opening the stream", func() {
			slow := stream.New("Slow", server.URL+"/slow.mp4", nil)
			started := make(chan error, 1)
			go func() { started <- s.Start(ctx, slow) }()
			So(notified.waitFor(Starting), ShouldBeTrue)

			begin := time.Now()
			s.Release()
			So(time.Since(begin), ShouldBeLessThan, time.Second)

			err := <-started
			So(errors.Is(err, ErrReleased), ShouldBeTrue)
			So(s.State(), ShouldEqual, Idle)
			So(s.LastError(), ShouldBeNil)
			So(s.Player(), ShouldBeNil)
			So(rec.entries(), ShouldBeEmpty)
			So(notified.all(), ShouldResemble, []State{Starting, Released, Idle})
		})

		Convey("Release of an idle session does nothing", func() {
			s.Release()
			So(s.State(), ShouldEqual, Idle)
			So(notified.all(), ShouldBeEmpty)
		})
	})
}

func TestState(t *testing.T) {
	Convey("The transition table", t, func() {
		So(Idle.CanTransition(Starting), ShouldBeTrue)
		So(Starting.CanTransition(Playing), ShouldBeTrue)
		So(Playing.CanTransition(Stalled), ShouldBeTrue)
		So(Stalled.CanTransition(Playing), ShouldBeTrue)
		So(Released.CanTransition(Idle), ShouldBeTrue)

		So(Idle.CanTransition(Playing), ShouldBeFalse)
		So(Buffering.CanTransition(Stalled), ShouldBeFalse)
		So(Released.CanTransition(Starting), ShouldBeFalse)

		for _, s := range []State{Starting, Buffering, Playing, Stalled} {
			So(s.CanTransition(Released), ShouldBeTrue)
			So(s.Active(), ShouldBeTrue)
		}
		So(Idle.Active(), ShouldBeFalse)
		So(Stalled.String(), ShouldEqual, "stalled")
	})

	Convey("failureKind", t, func() {
		So(failureKind(&media.TransportError{URL: "x"}), ShouldEqual, "transport")
		So(failureKind(fmt.Errorf("x: %w", &player.DecodeError{})), ShouldEqual, "decode")
		So(failureKind(ErrPlayerExited), ShouldEqual, "exited")
		So(failureKind(context.Canceled), ShouldEqual, "canceled")
		So(failureKind(errors.New("x")), ShouldEqual, "other")
	})
}

func TestOptionsFromConfig(t *testing.T) {
	Convey("Given the configuration", t, func() {
		Reset(viper.Reset)
		viper.Set(key.BufferMinMs, 5000)
		viper.Set(key.BufferMaxMs, 10000)
		viper.Set(key.BufferStartMs, 1000)
		viper.Set(key.BufferResumeMs, 3000)
		viper.Set(key.NetworkTimeoutSecs, 7)
		viper.Set(key.NetworkUserAgent, "PeyiTV/test")
		viper.Set(key.Player, "mpv")
		viper.Set(key.PlayerFullscreen, true)

		Convey("The options follow it", func() {
			opts, err := OptionsFromConfig(nil)
			So(err, ShouldBeNil)
			So(opts.Timeout, ShouldEqual, 7*time.Second)
			So(opts.Policy, ShouldResemble, buffer.FromMillis(5000, 10000, 1000, 3000))
			So(opts.DefaultIdentification, ShouldEqual, "PeyiTV/test")
			So(opts.Surface.Fullscreen, ShouldBeTrue)
			So(opts.Surface.KeepAwake, ShouldBeFalse)

			p, err := opts.Factory()
			So(err, ShouldBeNil)
			_, ok := p.(*player.MPV)
			So(ok, ShouldBeTrue)
			So(p.Close(), ShouldBeNil)
		})

		Convey("A broken buffer policy is refused", func() {
			viper.Set(key.BufferStartMs, 6000)
			_, err := OptionsFromConfig(nil)
			So(err, ShouldNotBeNil)
		})
	})
}
