// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/peyitv/peyitv/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants lists the accepted icons.variant values.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

type iconDef struct {
	emoji, nerd, plain, kaomoji, squares string
}

// in returns the symbol for variant, or "" for an unknown variant.
func (d *iconDef) in(variant string) string {
	switch variant {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get renders i in the configured variant.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.in(viper.GetString(key.IconsVariant))
}
