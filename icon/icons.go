package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Info
	Play
	Stop
	Buffering
	Stalled
	Stream
	Live
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "x",
		kaomoji: "(×﹏×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "+",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "~",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Info: {
		emoji:   "💡",
		nerd:    "",
		plain:   "i",
		kaomoji: "(°ロ°)☝",
		squares: "🟨",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "(｀・ω・´)ゞ",
		squares: "🟩",
	},
	Stop: {
		emoji:   "⏹️",
		nerd:    "",
		plain:   "#",
		kaomoji: "(￣ー￣)",
		squares: "⬛",
	},
	Buffering: {
		emoji:   "🌀",
		nerd:    "",
		plain:   "...",
		kaomoji: "(◔_◔)",
		squares: "🟪",
	},
	Stalled: {
		emoji:   "🐢",
		nerd:    "",
		plain:   "!",
		kaomoji: "(；￣Д￣)",
		squares: "🟧",
	},
	Stream: {
		emoji:   "📺",
		nerd:    "",
		plain:   "*",
		kaomoji: "[▀̿Ĺ̯▀̿]",
		squares: "🟫",
	},
	Live: {
		emoji:   "🔴",
		nerd:    "",
		plain:   "live",
		kaomoji: "(⊙_⊙)",
		squares: "🟥",
	},
}
