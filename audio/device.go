// Package audio renders decoded samples in real time and derives the
// playback position from their consumption. The device is modeled as a
// pull consumer over a bounded queue, so the rest of the player reasons
// about pushes and pops instead of device callbacks.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/media"
)

// nullPullInterval paces the silent fallback device.
const nullPullInterval = 10 * time.Millisecond

// Format describes an interleaved signed 16 bit sample stream.
type Format struct {
	SampleRate int
	Channels   int
}

// SampleBytes returns the size of one interleaved sample across channels.
func (f Format) SampleBytes() int {
	return f.Channels * 2
}

// BytesPerSecond returns the raw throughput of the stream.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.SampleBytes()
}

// OutputFormat derives the render format for a stream: the configured
// output sample rate, mono kept mono, anything wider folded to stereo.
// The decoder resamples to this format, so sink and source stay agreed.
func OutputFormat(info media.Info) Format {
	rate := viper.GetInt(key.PlaybackSampleRate)
	if rate <= 0 {
		rate = 48000
	}

	channels := 2
	if info.Channels == 1 {
		channels = 1
	}

	return Format{SampleRate: rate, Channels: channels}
}

// PullFunc hands the device up to len(buf) bytes of queued samples and
// returns how many were written. A short return means the queue is dry;
// the device renders silence for the remainder.
type PullFunc func(buf []byte) int

// Device drains sample pulls at the pace of real time. Implementations
// call pull from their own render flow, never from the caller's.
type Device interface {
	Start(format Format, pull PullFunc) error
	Pause()
	Resume()

	// Latency returns the seconds between a sample being pulled and it
	// becoming audible.
	Latency() float64

	Close() error
}

// newOutputDevice builds the device Open starts on. Tests reroute it so
// no real audio backend is ever initialized under go test.
var newOutputDevice = NewSystemDevice

// SetOutputDevice routes subsequently opened sinks through the given
// device constructor. Passing nil restores the system output device.
func SetOutputDevice(factory func() Device) {
	if factory == nil {
		factory = NewSystemDevice
	}

	newOutputDevice = factory
}

// nullDevice consumes samples at wall clock pace and discards them. It
// stands in when no output device can be opened, keeping the consumption
// derived clock ticking for silent playback.
type nullDevice struct {
	mu     sync.Mutex
	paused bool

	stop chan struct{}
	once sync.Once
}

// NewNullDevice returns a silent device paced by wall time.
func NewNullDevice() Device {
	return &nullDevice{stop: make(chan struct{})}
}

func (d *nullDevice) Start(format Format, pull PullFunc) error {
	go d.drain(format, pull)
	return nil
}

func (d *nullDevice) drain(format Format, pull PullFunc) {
	tick := time.NewTicker(nullPullInterval)
	defer tick.Stop()

	bps := float64(format.BytesPerSecond())
	sampleBytes := format.SampleBytes()
	buf := make([]byte, format.BytesPerSecond()/4)

	last := time.Now()
	owed := 0.0

	for {
		select {
		case <-d.stop:
			return
		case now := <-tick.C:
			d.mu.Lock()
			paused := d.paused
			d.mu.Unlock()

			if paused {
				last = now
				continue
			}

			// Cap the backlog so a scheduling stall does not turn into a
			// burst that races the queue ahead of real time.
			owed = math.Min(owed+now.Sub(last).Seconds()*bps, bps/4)
			last = now

			want := int(owed)
			want -= want % sampleBytes

			for want > 0 {
				n := len(buf)
				if want < n {
					n = want
				}

				got := pull(buf[:n])
				owed -= float64(got)
				want -= n

				if got < n {
					// Starved. Forgive the debt so silence is not
					// replayed as a fast forward once samples arrive.
					owed = 0
					break
				}
			}
		}
	}
}

func (d *nullDevice) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

func (d *nullDevice) Resume() {
	d.mu.Lock()
	d.paused = false
	d.mu.Unlock()
}

func (d *nullDevice) Latency() float64 {
	return 0
}

func (d *nullDevice) Close() error {
	d.once.Do(func() {
		close(d.stop)
	})

	return nil
}
