// Package media defines the domain model shared by the decoding, playback, and analysis subsystems.
package media

// ProgressEvent is one parsed status report from the external engine during an
// export job. Events are ephemeral; they are delivered to subscribers and
// never persisted.
type ProgressEvent struct {
	// Elapsed is the media time in seconds the engine has processed so far.
	Elapsed float64 `json:"elapsed"`
	// Total is the full media duration in seconds, injected from a prior
	// probe since the status stream does not restate it. Zero when unknown.
	Total float64 `json:"total"`
	// Speed is the engine's processing rate as a realtime multiplier.
	// Zero when the line carried no speed token.
	Speed float64 `json:"speed"`
}

// Percent returns completion in [0, 100], or 0 when the total is unknown.
func (e ProgressEvent) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	p := e.Elapsed / e.Total * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Remaining estimates the wall-clock seconds left at the current speed, or 0
// when either the total or the speed is unknown.
func (e ProgressEvent) Remaining() float64 {
	if e.Total <= 0 || e.Speed <= 0 {
		return 0
	}
	left := e.Total - e.Elapsed
	if left < 0 {
		return 0
	}
	return left / e.Speed
}
