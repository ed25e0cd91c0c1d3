package session

import (
	"fmt"

	"github.com/samber/lo"
)

// State is the lifecycle position of a playback session.
type State int

const (
	Idle State = iota
	Starting
	Buffering
	Playing
	Stalled
	Released
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Buffering:
		return "buffering"
	case Playing:
		return "playing"
	case Stalled:
		return "stalled"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Active reports whether a player is held in this state.
func (s State) Active() bool {
	return s != Idle && s != Released
}

var transitions = map[State][]State{
	Idle:      {Starting},
	Starting:  {Buffering, Playing, Released},
	Buffering: {Playing, Released},
	Playing:   {Stalled, Released},
	Stalled:   {Playing, Released},
	Released:  {Idle},
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	return lo.Contains(transitions[s], next)
}
