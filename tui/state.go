package tui

type state int

const (
	initialState state = iota
	errorState
	catalogState
	historyState
	playState
)
