// Package media defines the domain model shared by the decoding, playback, and analysis subsystems.
package media

import "fmt"

// TrimRange is an (in-point, out-point) pair of media timestamps in seconds.
// Validate must pass before a range is handed to any decode or export step.
type TrimRange struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
}

// Validate enforces 0 <= In <= Out.
func (r TrimRange) Validate() error {
	if r.In < 0 {
		return fmt.Errorf("trim range in-point %.3f is negative", r.In)
	}
	if r.In > r.Out {
		return fmt.Errorf("trim range in-point %.3f exceeds out-point %.3f", r.In, r.Out)
	}
	return nil
}

// Duration returns the length of the range in seconds.
func (r TrimRange) Duration() float64 {
	return r.Out - r.In
}

// Contains reports whether t falls inside the half-open interval [In, Out).
func (r TrimRange) Contains(t float64) bool {
	return t >= r.In && t < r.Out
}

// Clamp constrains the range to [0, duration], preserving ordering.
func (r TrimRange) Clamp(duration float64) TrimRange {
	in := r.In
	out := r.Out
	if in < 0 {
		in = 0
	}
	if out > duration {
		out = duration
	}
	if in > out {
		in = out
	}
	return TrimRange{In: in, Out: out}
}
