// Package buffer holds the playback buffering thresholds.
//
// MinBuffer and MaxBuffer bound how far ahead of the renderer the loader keeps media queued.
// BufferForStart is the queued duration required before playback first begins, and
// BufferForResumeAfterStall the duration required before resuming after an underrun.
package buffer

import (
	"fmt"
	"time"

	"github.com/peyitv/peyitv/key"
	"github.com/spf13/viper"
)

// Policy is an immutable set of buffering thresholds.
type Policy struct {
	MinBuffer                 time.Duration
	MaxBuffer                 time.Duration
	BufferForStart            time.Duration
	BufferForResumeAfterStall time.Duration
}

// Default is 5s min, 10s max, 2.5s to start and 5s to resume after a stall.
var Default = FromMillis(5000, 10000, 2500, 5000)

// FromMillis builds a policy from millisecond values. It does not validate.
func FromMillis(minMs, maxMs, startMs, resumeMs int) Policy {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	return Policy{
		MinBuffer:                 ms(minMs),
		MaxBuffer:                 ms(maxMs),
		BufferForStart:            ms(startMs),
		BufferForResumeAfterStall: ms(resumeMs),
	}
}

// Validate checks BufferForStart <= MinBuffer <= MaxBuffer, BufferForResumeAfterStall <= MaxBuffer
// and that no threshold is negative.
func (p Policy) Validate() error {
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"min", p.MinBuffer},
		{"max", p.MaxBuffer},
		{"start", p.BufferForStart},
		{"resume", p.BufferForResumeAfterStall},
	} {
		if t.d < 0 {
			return fmt.Errorf("buffer %s threshold is negative: %s", t.name, t.d)
		}
	}

	switch {
	case p.BufferForStart > p.MinBuffer:
		return fmt.Errorf("buffer for start (%s) exceeds min buffer (%s)", p.BufferForStart, p.MinBuffer)
	case p.MinBuffer > p.MaxBuffer:
		return fmt.Errorf("min buffer (%s) exceeds max buffer (%s)", p.MinBuffer, p.MaxBuffer)
	case p.BufferForResumeAfterStall > p.MaxBuffer:
		return fmt.Errorf("buffer for resume (%s) exceeds max buffer (%s)", p.BufferForResumeAfterStall, p.MaxBuffer)
	}

	return nil
}

// String renders the thresholds in milliseconds.
func (p Policy) String() string {
	return fmt.Sprintf("min=%dms max=%dms start=%dms resume=%dms",
		p.MinBuffer.Milliseconds(),
		p.MaxBuffer.Milliseconds(),
		p.BufferForStart.Milliseconds(),
		p.BufferForResumeAfterStall.Milliseconds(),
	)
}

// FromConfig reads the thresholds from the buffer.* configuration keys.
// An invalid combination is an error; it never falls back to Default silently.
func FromConfig() (Policy, error) {
	p := FromMillis(
		viper.GetInt(key.BufferMinMs),
		viper.GetInt(key.BufferMaxMs),
		viper.GetInt(key.BufferStartMs),
		viper.GetInt(key.BufferResumeMs),
	)

	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid buffer configuration: %w", err)
	}

	return p, nil
}
