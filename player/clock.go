// Package player synchronizes decoded media against real time. The
// controller owns the playback clock, pulls frames from a decoder source,
// feeds the audio sink, and picks the video frame due for presentation.
// Audio is never stretched to chase video; video is the slave clock,
// dropped or held to match what has actually been heard.
package player

import (
	"sync"
	"time"

	"github.com/montage-cli/montage/util"
)

// Playback rate bounds.
const (
	MinRate = 0.5
	MaxRate = 2.0
)

// PlaybackClock maps wall time to media time. While running, the current
// media time is the reference media time plus scaled wall elapsed; paused
// clocks hold still. Reads take a consistent snapshot of both references,
// so the control flow can read while the playback flow re-anchors.
type PlaybackClock struct {
	mu      sync.Mutex
	wall    time.Time
	media   float64
	rate    float64
	running bool
}

func NewClock() *PlaybackClock {
	return &PlaybackClock{rate: 1}
}

// Now returns the current media time.
func (c *PlaybackClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.at(time.Now())
}

// at computes media time for a wall instant. Callers hold c.mu.
func (c *PlaybackClock) at(instant time.Time) float64 {
	if !c.running {
		return c.media
	}

	return c.media + instant.Sub(c.wall).Seconds()*c.rate
}

// Anchor pins the given media time to this instant and starts the clock.
func (c *PlaybackClock) Anchor(mediaTime float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wall = time.Now()
	c.media = mediaTime
	c.running = true
}

// Seek moves the clock to the given media time without changing whether
// it is running.
func (c *PlaybackClock) Seek(mediaTime float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wall = time.Now()
	c.media = mediaTime
}

// Pause freezes the clock by folding the elapsed time into the media
// reference.
func (c *PlaybackClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.media = c.at(now)
	c.wall = now
	c.running = false
}

// Resume re-anchors the wall reference to now, leaving media time where
// the pause froze it.
func (c *PlaybackClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wall = time.Now()
	c.running = true
}

// SetRate changes the playback rate without a jump in media time and
// returns the clamped value actually applied.
func (c *PlaybackClock) SetRate(rate float64) float64 {
	rate = util.Clamp(rate, MinRate, MaxRate)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.media = c.at(now)
	c.wall = now
	c.rate = rate

	return rate
}

// Rate returns the current playback rate.
func (c *PlaybackClock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rate
}

// Running reports whether the clock is advancing.
func (c *PlaybackClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
