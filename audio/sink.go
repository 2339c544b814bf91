package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/viper"

	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
)

// ErrQueueFull reports a push against a queue already at capacity. The
// producer backs off and retries after the device drains.
var ErrQueueFull = errors.New("audio queue is full")

var errSinkClosed = errors.New("audio sink is closed")

const defaultQueueDepth = 32

// Sink queues decoded audio frames and feeds them to a Device. Total
// samples consumed since the last anchor, less the device latency, is the
// canonical playback position while an audio track exists.
//
// Pushes come from the decode flow, pulls from the device's render flow,
// and position reads from the control flow. All cross the same mutex, and
// the sink never calls into the device while holding it.
type Sink struct {
	device  Device
	format  Format
	latency float64
	silent  bool

	mu            sync.Mutex
	queue         []media.AudioFrame
	headOff       int
	capacity      int
	anchor        float64
	consumedBytes int
	volume        float64
	playing       bool
	starved       bool
	underruns     int
	closed        bool

	drained chan struct{}
}

// NewSink builds a sink over the given device. The queue depth and the
// initial volume come from configuration.
func NewSink(device Device, format Format) *Sink {
	capacity := viper.GetInt(key.PlaybackAudioQueue)
	if capacity <= 0 {
		capacity = defaultQueueDepth
	}

	volume := float64(viper.GetInt(key.PlaybackVolume)) / 100
	if volume <= 0 || volume > 1 {
		volume = 1
	}

	return &Sink{
		device:   device,
		format:   format,
		capacity: capacity,
		volume:   volume,
		drained:  make(chan struct{}, 1),
	}
}

// Open starts a sink on the output device, falling back to a silent
// wall paced drain when no device can be opened. Playback then runs
// without sound but with an intact consumption clock.
func Open(format Format, anchor float64) (*Sink, error) {
	sink := NewSink(newOutputDevice(), format)
	err := sink.Start(anchor)
	if err == nil {
		return sink, nil
	}

	if !media.IsDeviceKind(err, media.DeviceUnavailable) {
		return nil, err
	}

	log.Warnf("%v, playing silently", err)

	sink = NewSink(NewNullDevice(), format)
	if err := sink.Start(anchor); err != nil {
		return nil, err
	}

	sink.silent = true
	return sink, nil
}

// Start begins draining at the given media time anchor.
func (s *Sink) Start(anchor float64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSinkClosed
	}

	s.anchor = anchor
	s.consumedBytes = 0
	s.playing = true
	s.mu.Unlock()

	if err := s.device.Start(s.format, s.pull); err != nil {
		s.mu.Lock()
		s.playing = false
		s.mu.Unlock()

		if media.IsDeviceKind(err, media.DeviceUnavailable) {
			return err
		}

		return media.NewDeviceError(media.DeviceUnavailable, err)
	}

	s.mu.Lock()
	s.latency = s.device.Latency()
	s.mu.Unlock()
	return nil
}

// Push queues a frame, or reports ErrQueueFull without blocking.
func (s *Sink) Push(frame media.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSinkClosed
	}

	if len(s.queue) >= s.capacity {
		return ErrQueueFull
	}

	s.queue = append(s.queue, frame)
	return nil
}

// PushWait queues a frame, parking until the device drains a slot when
// the queue is full. This is the decode flow's backpressure point.
func (s *Sink) PushWait(ctx context.Context, frame media.AudioFrame) error {
	for {
		err := s.Push(frame)
		if !errors.Is(err, ErrQueueFull) {
			return err
		}

		select {
		case <-s.drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// PlayedPosition returns the media time currently audible, derived from
// bytes consumed since the last anchor less the device latency. Counting
// bytes keeps the fraction of a sample a pull may end on, so the clock
// cannot drift on odd sized pulls.
func (s *Sink) PlayedPosition() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	played := float64(s.consumedBytes)/float64(s.format.BytesPerSecond()) - s.latency
	if played < 0 {
		played = 0
	}

	return s.anchor + played
}

// Pause stops the device from pulling. Queued frames stay queued.
func (s *Sink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()

	s.device.Pause()
}

// Resume restarts draining after a pause.
func (s *Sink) Resume() {
	s.mu.Lock()
	s.playing = true
	s.starved = false
	s.mu.Unlock()

	s.device.Resume()
}

// Flush discards every queued frame and re-anchors the position, atomically
// with respect to pulls. Nothing queued before the flush is ever heard.
func (s *Sink) Flush(anchor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.queue = nil
	s.headOff = 0
	s.anchor = anchor
	s.consumedBytes = 0
	s.starved = false
	s.signalDrained()
}

// SetVolume scales output samples. The value is clamped to [0, 1].
func (s *Sink) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = util.Clamp(volume, 0, 1)
}

// Volume returns the current output scale.
func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.volume
}

// Queued returns the number of frames waiting in the queue.
func (s *Sink) Queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

// Capacity returns the fixed queue depth.
func (s *Sink) Capacity() int {
	return s.capacity
}

// Underruns counts the starvation episodes since the stream started. The
// controller diffs this across ticks to log drift recoveries.
func (s *Sink) Underruns() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.underruns
}

// Silent reports whether the sink fell back to the silent device.
func (s *Sink) Silent() bool {
	return s.silent
}

// Close stops the device and drops the queue. Parked pushes wake and
// report the sink closed.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.playing = false
	s.queue = nil
	close(s.drained)
	s.mu.Unlock()

	return s.device.Close()
}

// pull copies queued samples into buf and returns the bytes written.
// Called from the device's render flow.
func (s *Sink) pull(buf []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing || s.closed {
		return 0
	}

	written := 0
	for written < len(buf) && len(s.queue) > 0 {
		head := s.queue[0]
		n := copy(buf[written:], head.Data[s.headOff:])
		written += n
		s.headOff += n

		if s.headOff >= len(head.Data) {
			s.queue = s.queue[1:]
			s.headOff = 0
			s.signalDrained()
		}
	}

	if written == 0 {
		if !s.starved {
			s.starved = true
			s.underruns++
		}

		return 0
	}

	s.starved = false
	scaleSamples(buf[:written], s.volume)
	s.consumedBytes += written
	return written
}

// signalDrained wakes one parked push. Callers hold s.mu.
func (s *Sink) signalDrained() {
	select {
	case s.drained <- struct{}{}:
	default:
	}
}

// scaleSamples applies a volume scale to interleaved signed 16 bit
// little endian samples in place.
func scaleSamples(buf []byte, volume float64) {
	if volume >= 1 {
		return
	}

	for i := 0; i+1 < len(buf); i += 2 {
		sample := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
		scaled := int16(float64(sample) * volume)

		buf[i] = byte(uint16(scaled))
		buf[i+1] = byte(uint16(scaled) >> 8)
	}
}
