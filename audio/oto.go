package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/montage-cli/montage/media"
)

// otoBuffer sizes the device side buffer. It is also the latency the
// sink subtracts when deriving the played position.
const otoBuffer = 100 * time.Millisecond

// The backend allows one context per process, created once and keeping
// the first session's format.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func otoContext(format Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   otoBuffer,
		}

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			otoErr = err
			return
		}

		<-ready
		otoCtx = ctx
	})

	return otoCtx, otoErr
}

// pullReader adapts a PullFunc to the reader the backend drains. It never
// reports EOF; a starved pull yields silence so the device keeps running
// while the queue refills.
type pullReader struct {
	pull PullFunc
}

func (r *pullReader) Read(p []byte) (int, error) {
	n := r.pull(p)
	for i := n; i < len(p); i++ {
		p[i] = 0
	}

	return len(p), nil
}

// otoDevice renders samples through the system audio output.
type otoDevice struct {
	player *oto.Player
}

// NewSystemDevice returns the system audio output device. Opening is
// deferred to Start, which reports DeviceUnavailable when the backend
// cannot be initialized.
func NewSystemDevice() Device {
	return &otoDevice{}
}

func (d *otoDevice) Start(format Format, pull PullFunc) error {
	ctx, err := otoContext(format)
	if err != nil {
		return media.NewDeviceError(media.DeviceUnavailable, err)
	}

	d.player = ctx.NewPlayer(&pullReader{pull: pull})
	d.player.Play()
	return nil
}

func (d *otoDevice) Pause() {
	if d.player != nil {
		d.player.Pause()
	}
}

func (d *otoDevice) Resume() {
	if d.player != nil {
		d.player.Play()
	}
}

func (d *otoDevice) Latency() float64 {
	return otoBuffer.Seconds()
}

func (d *otoDevice) Close() error {
	if d.player == nil {
		return nil
	}

	return d.player.Close()
}
