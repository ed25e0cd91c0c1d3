package mini

import (
	"context"
	"testing"
	"time"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/stream"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPick(t *testing.T) {
	Convey("Given two items and two binds", t, func() {
		items := []string{"a", "b"}
		binds := []*bind{toHistory, quit}

		Convey("An item index selects the item", func() {
			b, item, err := pick(1, items, binds)
			So(err, ShouldBeNil)
			So(b, ShouldBeNil)
			So(item, ShouldEqual, "b")
		})

		Convey("Indexes past the items select the binds", func() {
			b, item, err := pick(3, items, binds)
			So(err, ShouldBeNil)
			So(b, ShouldEqual, quit)
			So(item, ShouldBeEmpty)
		})

		Convey("Out of range indexes are errors", func() {
			_, _, err := pick(4, items, binds)
			So(err, ShouldNotBeNil)
			_, _, err = pick(-1, items, binds)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Options are filtered fuzzily and without case", t, func() {
		So(filter("anw", "Alpha News", 0), ShouldBeTrue)
		So(filter("ALPHA", "alpha news", 0), ShouldBeTrue)
		So(filter("xyz", "Alpha News", 0), ShouldBeFalse)
	})
}

func TestLabels(t *testing.T) {
	Convey("Streams show their protocol", t, func() {
		item := streamItem{stream.New("Alpha", "https://x/live.m3u8", nil)}
		So(item.String(), ShouldStartWith, "Alpha")
		So(item.String(), ShouldContainSubstring, "hls")
	})

	Convey("History entries show their play count", t, func() {
		at := time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC)
		item := entryItem{&history.Entry{Name: "Alpha", PlayCount: 2, LastPlayed: at}}
		So(item.String(), ShouldContainSubstring, "2 plays")
		So(item.String(), ShouldContainSubstring, "2026-03-01 20:30")
	})

	Convey("Binds carry their label", t, func() {
		So(stop.String(), ShouldEndWith, "Stop")
	})
}

func TestStates(t *testing.T) {
	Convey("Given a mini on the catalog", t, func() {
		store, err := catalog.Parse([]byte(`[{"name": "A", "url": "https://x/a.m3u8"}]`), "test.json")
		So(err, ShouldBeNil)

		m := newMini(context.Background(), store, session.New(session.Options{}))
		m.setState(catalogSelectState)

		Convey("Playing remembers the list to return to", func() {
			m.newState(playState)
			m.previousState()
			So(m.state, ShouldEqual, catalogSelectState)
		})

		Convey("History is remembered as well", func() {
			m.newState(historySelectState)
			m.newState(playState)
			m.previousState()
			So(m.state, ShouldEqual, historySelectState)
		})

		Convey("An idle session is described by its state", func() {
			So(m.describe(), ShouldEqual, "idle")
		})
	})
}
