package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
	. "github.com/smartystreets/goconvey/convey"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720
high/index.m3u8
`

const livePlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:100
#EXTINF:6.0,
seg100.ts
#EXTINF:6.0,
seg101.ts
`

const vodPlaylist = livePlaylist + "#EXT-X-ENDLIST\n"

func newServer(referers *[]string) *httptest.Server {
	mux := http.NewServeMux()

	playlist := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			*referers = append(*referers, r.Header.Get("Referer"))
			w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
			_, _ = io.WriteString(w, body)
		}
	}

	mux.HandleFunc("/master.m3u8", playlist(masterPlaylist))
	mux.HandleFunc("/low/index.m3u8", playlist(livePlaylist))
	mux.HandleFunc("/vod.m3u8", playlist(vodPlaylist))
	mux.HandleFunc("/broken.m3u8", playlist("<html>not a playlist</html>"))
	mux.HandleFunc("/empty.m3u8", playlist("#EXTM3U\n#EXT-X-TARGETDURATION:6\n#EXT-X-ENDLIST\n"))
	mux.HandleFunc("/dangling.m3u8", playlist("#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nmissing/index.m3u8\n"))
	mux.HandleFunc("/file.mp4", func(w http.ResponseWriter, r *http.Request) {
		*referers = append(*referers, r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "video/mp4")
		if r.Header.Get("Range") == "bytes=0-0" {
			w.Header().Set("Content-Range", "bytes 0-0/123456")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = io.WriteString(w, "x")
			return
		}
		_, _ = io.WriteString(w, "whole file")
	})
	mux.HandleFunc("/norange.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = io.WriteString(w, "whole file")
	})
	mux.HandleFunc("/forbidden.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	return httptest.NewServer(mux)
}

func open(url string, headers map[string]string) (Source, error) {
	d := stream.New("test", url, headers)
	ds := network.NewDataSource(network.NewClient(5*time.Second, false), network.Merge(d.Headers(), "PeyiTV/test"))
	src := New(d, ds)
	return src, src.Open(context.Background())
}

func TestNew(t *testing.T) {
	Convey("New picks the constructor by protocol", t, func() {
		ds := network.NewDataSource(http.DefaultClient, network.RequestConfig{})

		hls := New(stream.New("A", "https://x/live.m3u8", nil), ds)
		_, ok := hls.(*HLS)
		So(ok, ShouldBeTrue)
		So(hls.Protocol(), ShouldEqual, stream.SegmentedAdaptive)

		progressive := New(stream.New("B", "https://y/file.mp4", nil), ds)
		_, ok = progressive.(*Progressive)
		So(ok, ShouldBeTrue)
		So(progressive.Protocol(), ShouldEqual, stream.Progressive)
		So(progressive.Info(), ShouldResemble, Info{})
	})
}

func TestHLS(t *testing.T) {
	Convey("Given an HLS server", t, func() {
		var referers []string
		server := newServer(&referers)
		Reset(server.Close)
		headers := map[string]string{"Referer": "https://x/"}

		Convey("A master playlist opens through its first variant", func() {
			src, err := open(server.URL+"/master.m3u8", headers)
			So(err, ShouldBeNil)

			info := src.Info()
			So(info.Variants, ShouldEqual, 2)
			So(info.Segments, ShouldEqual, 2)
			So(info.TargetDuration, ShouldEqual, 6*time.Second)
			So(info.Live, ShouldBeTrue)
			So(referers, ShouldResemble, []string{"https://x/", "https://x/"})
		})

		Convey("A closed media playlist is not live", func() {
			src, err := open(server.URL+"/vod.m3u8", headers)
			So(err, ShouldBeNil)
			So(src.Info().Live, ShouldBeFalse)
			So(src.Info().Variants, ShouldEqual, 0)
		})

		Convey("A body that is not a playlist is a transport error", func() {
			_, err := open(server.URL+"/broken.m3u8", nil)
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.Error(), ShouldContainSubstring, "decode playlist")
		})

		Convey("A finished playlist without segments is a transport error", func() {
			_, err := open(server.URL+"/empty.m3u8", nil)
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
		})

		Convey("A variant that does not exist carries the status code", func() {
			_, err := open(server.URL+"/dangling.m3u8", nil)
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.StatusCode, ShouldEqual, http.StatusNotFound)
			So(te.URL, ShouldEndWith, "/missing/index.m3u8")
		})

		Convey("An unreachable host is a transport error", func() {
			_, err := open("http://127.0.0.1:1/live.m3u8", nil)
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.StatusCode, ShouldEqual, 0)
		})
	})
}

func TestProgressive(t *testing.T) {
	Convey("Given a progressive server", t, func() {
		var referers []string
		server := newServer(&referers)
		Reset(server.Close)

		Convey("A ranged open reports the full length", func() {
			src, err := open(server.URL+"/file.mp4", map[string]string{"Referer": "https://y/"})
			So(err, ShouldBeNil)
			So(src.Info().ContentLength, ShouldEqual, int64(123456))
			So(src.Info().ContentType, ShouldEqual, "video/mp4")
			So(referers, ShouldResemble, []string{"https://y/"})
		})

		Convey("A server ignoring ranges still opens", func() {
			src, err := open(server.URL+"/norange.mp4", nil)
			So(err, ShouldBeNil)
			So(src.Info().ContentLength, ShouldEqual, int64(len("whole file")))
		})

		Convey("An error status is a transport error", func() {
			_, err := open(server.URL+"/forbidden.mp4", nil)
			var te *TransportError
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.StatusCode, ShouldEqual, http.StatusForbidden)
			So(te.Error(), ShouldContainSubstring, "HTTP 403")
		})
	})
}

func TestContentRangeTotal(t *testing.T) {
	Convey("contentRangeTotal", t, func() {
		n, ok := contentRangeTotal("bytes 0-0/1234")
		So(ok, ShouldBeTrue)
		So(n, ShouldEqual, int64(1234))

		_, ok = contentRangeTotal("bytes 0-0/*")
		So(ok, ShouldBeFalse)

		_, ok = contentRangeTotal("")
		So(ok, ShouldBeFalse)
	})
}
