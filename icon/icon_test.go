package icon

import (
	"testing"

	"github.com/peyitv/peyitv/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestGet(t *testing.T) {
	defer viper.Set(key.IconsVariant, plain)

	Convey("Every icon has a symbol in every variant", t, func() {
		for i, def := range icons {
			for _, variant := range AvailableVariants() {
				viper.Set(key.IconsVariant, variant)
				So(def.in(variant), ShouldNotBeEmpty)
				So(Get(i), ShouldEqual, def.in(variant))
			}
		}
	})

	Convey("Plain symbols are ASCII", t, func() {
		viper.Set(key.IconsVariant, plain)
		for i := range icons {
			for _, r := range Get(i) {
				So(r, ShouldBeLessThan, 128)
			}
		}
	})

	Convey("An unknown variant renders nothing", t, func() {
		viper.Set(key.IconsVariant, "")
		So(Get(Play), ShouldBeEmpty)
	})

	Convey("An unknown icon renders nothing", t, func() {
		viper.Set(key.IconsVariant, emoji)
		So(Get(Icon(-1)), ShouldBeEmpty)
	})
}
