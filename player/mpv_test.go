package player

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peyitv/peyitv/buffer"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func request() Request {
	return Request{
		URL:      "https://x/live.m3u8",
		Protocol: stream.SegmentedAdaptive,
		Config: network.RequestConfig{
			Identification: "VLC/3.0.18",
			ExtraHeaders:   map[string]string{"Referer": "https://x/", "Cookie": "a=1,b=2"},
		},
		Policy:  buffer.Default,
		Surface: Surface{Title: "Stream A", Fullscreen: true, KeepAwake: true},
	}
}

func TestMPVArgs(t *testing.T) {
	Convey("Given a request with the default buffer policy", t, func() {
		req := request()

		Convey("The buffer thresholds map onto the cache options", func() {
			args := mpvArgs("/tmp/s.sock", req)
			So(args, ShouldContain, "--cache=yes")
			So(args, ShouldContain, "--demuxer-readahead-secs=5")
			So(args, ShouldContain, "--cache-secs=10")
			So(args, ShouldContain, "--cache-pause-initial=yes")
			So(args, ShouldContain, "--cache-pause-wait=2.5")
		})

		Convey("The identification and the extra headers are passed separately", func() {
			args := mpvArgs("/tmp/s.sock", req)
			So(args, ShouldContain, "--user-agent=VLC/3.0.18")
			So(args, ShouldContain, "--http-header-fields-append=Cookie: a=1,b=2")
			So(args, ShouldContain, "--http-header-fields-append=Referer: https://x/")
		})

		Convey("Header values with commas are passed unchanged, one option per header", func() {
			req.Config.ExtraHeaders = map[string]string{
				"Accept":  "video/mp4, */*;q=0.8",
				"Referer": "https://y/a,b",
			}
			headers := lo.Filter(mpvArgs("/tmp/s.sock", req), func(arg string, _ int) bool {
				return strings.HasPrefix(arg, "--http-header-fields")
			})
			So(headers, ShouldResemble, []string{
				"--http-header-fields-append=Accept: video/mp4, */*;q=0.8",
				"--http-header-fields-append=Referer: https://y/a,b",
			})
		})

		Convey("The surface is bound", func() {
			args := mpvArgs("/tmp/s.sock", req)
			So(args, ShouldContain, "--fs")
			So(args, ShouldContain, "--stop-screensaver=yes")
			So(args, ShouldContain, "--force-media-title=Stream A")
			So(args, ShouldContain, "--input-ipc-server=/tmp/s.sock")
			So(args, ShouldNotContain, "--wid=0")
		})

		Convey("A windowed surface without keep-awake", func() {
			req.Surface = Surface{Title: "B\nC", WindowID: 42}
			args := mpvArgs("/tmp/s.sock", req)
			So(args, ShouldNotContain, "--fs")
			So(args, ShouldContain, "--stop-screensaver=no")
			So(args, ShouldContain, "--wid=42")
			So(args, ShouldContain, "--title=B C")
		})

		Convey("Without extra headers no header option is added", func() {
			req.Config.ExtraHeaders = map[string]string{}
			for _, arg := range mpvArgs("/tmp/s.sock", req) {
				So(arg, ShouldNotStartWith, "--http-header-fields")
			}
		})

		Convey("The URL comes last", func() {
			args := mpvArgs("/tmp/s.sock", req)
			So(args[len(args)-1], ShouldEqual, req.URL)
		})
	})
}

func TestIINAArgs(t *testing.T) {
	Convey("IINA receives the mpv options with the --mpv- prefix", t, func() {
		args := iinaArgs(request())
		So(args[:5], ShouldResemble, []string{"-W", "-n", "-a", "IINA", "--args"})
		So(args, ShouldContain, "--mpv-cache-pause-wait=2.5")
		So(args, ShouldContain, "--mpv-fs")
		So(args, ShouldNotContain, "--mpv-no-terminal")
		So(args[len(args)-1], ShouldEqual, "https://x/live.m3u8")
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		u, err := sanitizeMediaTarget("  https://x/a.mp4 ")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, "https://x/a.mp4")

		for _, bad := range []string{"", "--script=evil.lua", "file:///etc/passwd", "https://x/\na", "/local/file.mp4"} {
			_, err := sanitizeMediaTarget(bad)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestTracker(t *testing.T) {
	Convey("Given a fresh tracker", t, func() {
		tr := newTracker()
		kinds := func(steps ...[2]interface{}) []EventKind {
			var out []EventKind
			for _, s := range steps {
				if ev, ok := tr.translate(s[0].(string), s[1]); ok {
					out = append(out, ev.Kind)
				}
			}
			return out
		}
		cache := func(paused bool) [2]interface{} { return [2]interface{}{"paused-for-cache", paused} }
		restart := [2]interface{}{"playback-restart", nil}

		Convey("The initial false value is ignored", func() {
			So(kinds(cache(false)), ShouldBeEmpty)
		})

		Convey("Buffering, playing, stalling and resuming", func() {
			So(kinds(cache(false), cache(true), cache(false), restart, cache(true), cache(false)), ShouldResemble, []EventKind{
				EventBuffering, EventPlaying, EventStalled, EventPlaying,
			})
		})

		Convey("The first start is reported once", func() {
			kinds(cache(true), cache(false))
			So(tr.firstStart(), ShouldBeTrue)
			kinds(cache(true), cache(false))
			So(tr.firstStart(), ShouldBeFalse)
		})

		Convey("A restart without cache pause still plays", func() {
			So(kinds(restart, restart), ShouldResemble, []EventKind{EventPlaying})
		})

		Convey("A failed file is a decode error", func() {
			ev, ok := tr.translate("end-file", map[string]interface{}{"reason": "error", "file_error": "unrecognized file format"})
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, EventError)

			var decode *DecodeError
			So(errors.As(ev.Err, &decode), ShouldBeTrue)
			So(decode.Reason, ShouldEqual, "unrecognized file format")
		})

		Convey("A normal end of file is left to the exit watcher", func() {
			_, ok := tr.translate("end-file", map[string]interface{}{"reason": "eof"})
			So(ok, ShouldBeFalse)
		})
	})
}

// fakeMPV serves the JSON-IPC protocol on a unix socket. Every command is answered after an unrelated
// event line, which is how mpv interleaves broadcasts with replies.
func fakeMPV(t *testing.T) (string, chan []byte) {
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("peyitv-test-%d.sock", time.Now().UnixNano()))
	ln, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatal(err)
	}

	received := make(chan []byte, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				reader := bufio.NewReader(conn)
				for {
					line, err := reader.ReadBytes('\n')
					if err != nil {
						return
					}
					received <- line
					_, _ = conn.Write([]byte(`{"event":"playback-restart"}` + "\n"))
					_, _ = conn.Write([]byte(`{"data":12.5,"error":"success"}` + "\n"))
				}
			}(conn)
		}
	}()

	t.Cleanup(func() {
		ln.Close()
		os.Remove(socket)
	})

	return socket, received
}

func TestIPC(t *testing.T) {
	Convey("Given an mpv IPC socket", t, func() {
		socket, received := fakeMPV(t)

		Convey("Replies are read past broadcast events", func() {
			data, err := doSendCommand(socket, []interface{}{"get_property", "time-pos"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 12.5)
			So(string(<-received), ShouldEqual, `{"command":["get_property","time-pos"]}`+"\n")
		})

		Convey("The listener registers its observers on its own connection", func() {
			names := make(chan string, 4)
			el := NewEventListener(socket, func(name string, _ interface{}) {
				names <- name
			})
			So(el.Start(), ShouldBeNil)

			So(string(<-received), ShouldEqual, `{"command":["observe_property",1,"paused-for-cache"]}`+"\n")
			So(<-names, ShouldEqual, "playback-restart")

			el.Stop()
			el.Stop()
		})
	})

	Convey("A missing socket fails to connect", t, func() {
		_, err := doSendCommand(filepath.Join(os.TempDir(), "peyitv-missing.sock"), []interface{}{"quit"})
		So(err, ShouldNotBeNil)
	})
}

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		for _, name := range Backends {
			p, err := New(name)
			So(err, ShouldBeNil)
			So(p.IsRunning(), ShouldBeFalse)
			So(p.Close(), ShouldBeNil)

			_, open := <-p.Events()
			So(open, ShouldBeFalse)
		}

		_, err := New("vlc")
		So(err, ShouldNotBeNil)
		So(Available("vlc"), ShouldNotBeNil)
	})
}
