package stream

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestResolve(t *testing.T) {
	Convey("Given stream URLs", t, func() {
		Convey("Playlists are segmented adaptive in any casing", func() {
			for _, u := range []string{
				"https://x/live.m3u8",
				"https://x/LIVE.M3U8",
				"https://x/index.m3U8?token=abc",
				"http://cdn/path/playlist.m3u8/extra",
				".m3u8",
			} {
				So(Resolve(u), ShouldEqual, SegmentedAdaptive)
			}
		})

		Convey("Everything else is progressive", func() {
			for _, u := range []string{
				"https://y/file.mp4",
				"https://y/stream.ts",
				"https://y/m3u8",
				"https://y/live.m3u",
				"",
				"not a url at all",
				"::::",
			} {
				So(Resolve(u), ShouldEqual, Progressive)
			}
		})
	})
}

func TestDescriptor(t *testing.T) {
	Convey("Given a descriptor built from a header map", t, func() {
		headers := map[string]string{"Referer": "https://y/"}
		d := New("B", "https://y/file.mp4", headers)

		Convey("It exposes its fields", func() {
			So(d.Name(), ShouldEqual, "B")
			So(d.URL(), ShouldEqual, "https://y/file.mp4")
			So(d.String(), ShouldEqual, "B")
			So(d.Protocol(), ShouldEqual, Progressive)
		})

		Convey("It is not affected by the caller's map", func() {
			headers["Referer"] = "changed"
			headers["Origin"] = "https://evil/"
			So(d.Headers(), ShouldResemble, map[string]string{"Referer": "https://y/"})
		})

		Convey("Its returned headers are copies", func() {
			h := d.Headers()
			h["Referer"] = "changed"
			So(d.Headers()["Referer"], ShouldEqual, "https://y/")
		})

		Convey("Header lookup ignores case", func() {
			v, ok := d.Header("referer")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "https://y/")

			_, ok = d.Header("Origin")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("A descriptor without headers has an empty map", t, func() {
		d := New("A", "https://x/live.m3u8", nil)
		So(d.Headers(), ShouldNotBeNil)
		So(d.Headers(), ShouldBeEmpty)
		So(d.Protocol(), ShouldEqual, SegmentedAdaptive)
		So(d.Protocol().String(), ShouldEqual, "hls")
	})
}
