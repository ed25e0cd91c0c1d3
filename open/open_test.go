package open

import (
	"runtime"
	"testing"

	"github.com/peyitv/peyitv/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	Convey("The default handler is known on supported systems", t, func() {
		cmd, ok := command("/tmp/streams.json")

		switch runtime.GOOS {
		case constant.Linux, constant.Darwin, constant.Windows:
			So(ok, ShouldBeTrue)
			So(cmd.Args[len(cmd.Args)-1], ShouldEqual, "/tmp/streams.json")
		default:
			So(ok, ShouldBeFalse)
		}
	})

	Convey("An explicit program runs with the file as its argument", t, func() {
		if runtime.GOOS == constant.Windows {
			return
		}
		So(RunWith("/dev/null", "true"), ShouldBeNil)
		So(RunWith("/dev/null", "false"), ShouldNotBeNil)
	})
}
