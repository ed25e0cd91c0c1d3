package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peyitv/peyitv/media"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a server with good and bad streams", t, func() {
		var inflight, peak int32
		mux := http.NewServeMux()
		mux.HandleFunc("/ok.mp4", func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&inflight, 1)
			defer atomic.AddInt32(&inflight, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			_, _ = io.WriteString(w, "x")
		})
		mux.HandleFunc("/live.m3u8", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "#EXTM3U\n#EXT-X-TARGETDURATION:4\n#EXTINF:4.0,\na.ts\n")
		})
		mux.HandleFunc("/gone.mp4", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusGone)
		})
		server := httptest.NewServer(mux)
		Reset(server.Close)

		streams := []*stream.Descriptor{
			stream.New("one", server.URL+"/ok.mp4", nil),
			stream.New("live", server.URL+"/live.m3u8", nil),
			stream.New("gone", server.URL+"/gone.mp4", nil),
			stream.New("two", server.URL+"/ok.mp4", nil),
			stream.New("three", server.URL+"/ok.mp4", nil),
		}

		opts := Options{
			Client:                network.NewClient(5*time.Second, false),
			DefaultIdentification: "PeyiTV/test",
			Concurrency:           2,
			Rate:                  100,
			Timeout:               5 * time.Second,
		}

		Convey("Every stream gets a result in catalog order", func() {
			results, err := Run(context.Background(), streams, opts)
			So(err, ShouldBeNil)
			So(len(results), ShouldEqual, len(streams))

			for i, r := range results {
				So(r.Stream, ShouldEqual, streams[i])
			}

			So(results[0].OK(), ShouldBeTrue)
			So(results[1].OK(), ShouldBeTrue)
			So(results[1].Info.Live, ShouldBeTrue)

			var transport *media.TransportError
			So(results[2].OK(), ShouldBeFalse)
			So(errors.As(results[2].Err, &transport), ShouldBeTrue)
			So(transport.StatusCode, ShouldEqual, http.StatusGone)
		})

		Convey("No more than the concurrency limit is in flight", func() {
			_, err := Run(context.Background(), streams, opts)
			So(err, ShouldBeNil)
			So(atomic.LoadInt32(&peak), ShouldBeLessThanOrEqualTo, 2)
		})

		Convey("A cancelled context stops the probe", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := Run(ctx, streams, opts)
			So(err, ShouldNotBeNil)
		})
	})
}
