package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"

	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/media"
)

// manualDevice exposes the pull callback so tests drive consumption by
// hand instead of waiting on real time.
type manualDevice struct {
	pull    PullFunc
	latency float64
	paused  bool
	closed  bool
}

func (d *manualDevice) Start(format Format, pull PullFunc) error {
	d.pull = pull
	return nil
}

func (d *manualDevice) Pause()  { d.paused = true }
func (d *manualDevice) Resume() { d.paused = false }

func (d *manualDevice) Latency() float64 {
	return d.latency
}

func (d *manualDevice) Close() error {
	d.closed = true
	return nil
}

func (d *manualDevice) drain(bytes int) []byte {
	buf := make([]byte, bytes)
	return buf[:d.pull(buf)]
}

type deadDevice struct{}

func (deadDevice) Start(Format, PullFunc) error {
	return media.NewDeviceError(media.DeviceUnavailable, errors.New("no output backend"))
}

func (deadDevice) Pause()           {}
func (deadDevice) Resume()          {}
func (deadDevice) Latency() float64 { return 0 }
func (deadDevice) Close() error     { return nil }

func tone(pts float64, samples int, value int16, format Format) media.AudioFrame {
	data := make([]byte, samples*format.SampleBytes())
	for i := 0; i+1 < len(data); i += 2 {
		data[i] = byte(uint16(value))
		data[i+1] = byte(uint16(value) >> 8)
	}

	return media.AudioFrame{
		PTS:        pts,
		Data:       data,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}
}

func TestSinkQueue(t *testing.T) {
	format := Format{SampleRate: 48000, Channels: 2}

	Convey("Given a sink with a four frame queue", t, func() {
		viper.Set(key.PlaybackAudioQueue, 4)
		defer viper.Set(key.PlaybackAudioQueue, 0)

		device := &manualDevice{}
		sink := NewSink(device, format)
		So(sink.Start(0), ShouldBeNil)

		Convey("Pushes are accepted until the queue is full", func() {
			for i := 0; i < 4; i++ {
				So(sink.Push(tone(0, 64, 0, format)), ShouldBeNil)
			}

			So(sink.Push(tone(0, 64, 0, format)), ShouldEqual, ErrQueueFull)
			So(sink.Queued(), ShouldEqual, 4)

			Convey("And accepted again once the device drains a frame", func() {
				device.drain(64 * format.SampleBytes())
				So(sink.Push(tone(0, 64, 0, format)), ShouldBeNil)
			})
		})
	})
}

func TestSinkPushWait(t *testing.T) {
	format := Format{SampleRate: 48000, Channels: 2}

	Convey("Given a full single slot queue", t, func() {
		viper.Set(key.PlaybackAudioQueue, 1)
		defer viper.Set(key.PlaybackAudioQueue, 0)

		device := &manualDevice{}
		sink := NewSink(device, format)
		So(sink.Start(0), ShouldBeNil)
		So(sink.Push(tone(0, 64, 0, format)), ShouldBeNil)

		Convey("A parked push completes once the device drains", func() {
			done := make(chan error, 1)
			go func() {
				done <- sink.PushWait(context.Background(), tone(0, 64, 0, format))
			}()

			select {
			case <-done:
				t.Fatal("push completed before the drain")
			case <-time.After(20 * time.Millisecond):
			}

			device.drain(64 * format.SampleBytes())

			select {
			case err := <-done:
				So(err, ShouldBeNil)
			case <-time.After(time.Second):
				t.Fatal("push never completed")
			}
		})

		Convey("Cancellation unparks the push", func() {
			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				done <- sink.PushWait(ctx, tone(0, 64, 0, format))
			}()

			cancel()

			select {
			case err := <-done:
				So(err, ShouldEqual, context.Canceled)
			case <-time.After(time.Second):
				t.Fatal("push never unparked")
			}
		})

		Convey("Closing the sink unparks the push", func() {
			done := make(chan error, 1)
			go func() {
				done <- sink.PushWait(context.Background(), tone(0, 64, 0, format))
			}()

			So(sink.Close(), ShouldBeNil)

			select {
			case err := <-done:
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrQueueFull), ShouldBeFalse)
			case <-time.After(time.Second):
				t.Fatal("push never unparked")
			}
		})
	})
}

func TestSinkPosition(t *testing.T) {
	format := Format{SampleRate: 48000, Channels: 2}

	Convey("Given a started sink", t, func() {
		device := &manualDevice{}
		sink := NewSink(device, format)
		So(sink.Start(0), ShouldBeNil)

		Convey("The position reads the anchor before any sample plays", func() {
			So(sink.PlayedPosition(), ShouldEqual, 0)
		})

		Convey("Consumed samples advance the position", func() {
			So(sink.Push(tone(0, 1024, 0, format)), ShouldBeNil)

			device.drain(512 * format.SampleBytes())
			So(sink.PlayedPosition(), ShouldAlmostEqual, 512.0/48000, 1e-9)

			device.drain(512 * format.SampleBytes())
			So(sink.PlayedPosition(), ShouldAlmostEqual, 1024.0/48000, 1e-9)
		})

		Convey("Pulls ending mid-sample lose no clock", func() {
			So(sink.Push(tone(0, 48, 0, format)), ShouldBeNil)

			device.drain(6)
			device.drain(6)

			So(sink.PlayedPosition(), ShouldAlmostEqual, 3.0/48000, 1e-9)
		})

		Convey("Consumption spans frame boundaries", func() {
			So(sink.Push(tone(0, 100, 0, format)), ShouldBeNil)
			So(sink.Push(tone(0, 100, 0, format)), ShouldBeNil)

			got := device.drain(150 * format.SampleBytes())
			So(len(got), ShouldEqual, 150*format.SampleBytes())
			So(sink.Queued(), ShouldEqual, 1)

			got = device.drain(150 * format.SampleBytes())
			So(len(got), ShouldEqual, 50*format.SampleBytes())
			So(sink.Queued(), ShouldEqual, 0)
		})

		Convey("Flush re-anchors and silences everything queued", func() {
			So(sink.Push(tone(0, 1024, 7, format)), ShouldBeNil)
			device.drain(256 * format.SampleBytes())

			sink.Flush(7.5)

			So(sink.Queued(), ShouldEqual, 0)
			So(sink.PlayedPosition(), ShouldEqual, 7.5)

			So(sink.Push(tone(7.5, 480, 0, format)), ShouldBeNil)
			device.drain(480 * format.SampleBytes())
			So(sink.PlayedPosition(), ShouldAlmostEqual, 7.51, 1e-9)
		})

		Convey("Pauses freeze consumption even if the device still pulls", func() {
			So(sink.Push(tone(0, 1024, 0, format)), ShouldBeNil)
			sink.Pause()

			So(device.paused, ShouldBeTrue)
			So(device.drain(512*format.SampleBytes()), ShouldBeEmpty)
			So(sink.PlayedPosition(), ShouldEqual, 0)

			sink.Resume()
			device.drain(512 * format.SampleBytes())
			So(sink.PlayedPosition(), ShouldBeGreaterThan, 0)
		})
	})

	Convey("Device latency offsets the position but never below the anchor", t, func() {
		device := &manualDevice{latency: 0.005}
		sink := NewSink(device, format)
		So(sink.Start(2), ShouldBeNil)

		So(sink.Push(tone(2, 1024, 0, format)), ShouldBeNil)

		device.drain(96 * format.SampleBytes())
		So(sink.PlayedPosition(), ShouldEqual, 2)

		device.drain(480 * format.SampleBytes())
		So(sink.PlayedPosition(), ShouldAlmostEqual, 2+576.0/48000-0.005, 1e-9)
	})
}

func TestSinkVolume(t *testing.T) {
	format := Format{SampleRate: 48000, Channels: 1}

	Convey("Given a started sink", t, func() {
		device := &manualDevice{}
		sink := NewSink(device, format)
		So(sink.Start(0), ShouldBeNil)

		sample := func(buf []byte) int16 {
			return int16(uint16(buf[0]) | uint16(buf[1])<<8)
		}

		Convey("Half volume halves the samples", func() {
			sink.SetVolume(0.5)
			So(sink.Push(tone(0, 16, 1000, format)), ShouldBeNil)

			got := device.drain(16 * format.SampleBytes())
			So(sample(got), ShouldEqual, 500)
		})

		Convey("Zero volume silences them", func() {
			sink.SetVolume(0)
			So(sink.Push(tone(0, 16, -1000, format)), ShouldBeNil)

			got := device.drain(16 * format.SampleBytes())
			So(sample(got), ShouldEqual, 0)
		})

		Convey("The scale is clamped to unity", func() {
			sink.SetVolume(4)
			So(sink.Volume(), ShouldEqual, 1)

			So(sink.Push(tone(0, 16, 1000, format)), ShouldBeNil)
			got := device.drain(16 * format.SampleBytes())
			So(sample(got), ShouldEqual, 1000)
		})
	})
}

func TestSinkUnderruns(t *testing.T) {
	format := Format{SampleRate: 48000, Channels: 2}

	Convey("Given a starved sink", t, func() {
		device := &manualDevice{}
		sink := NewSink(device, format)
		So(sink.Start(0), ShouldBeNil)

		Convey("A starvation episode counts once, not per pull", func() {
			device.drain(256)
			device.drain(256)
			So(sink.Underruns(), ShouldEqual, 1)

			Convey("And a refill opens a new episode", func() {
				So(sink.Push(tone(0, 64, 0, format)), ShouldBeNil)
				device.drain(64 * format.SampleBytes())
				device.drain(256)

				So(sink.Underruns(), ShouldEqual, 2)
			})
		})

		Convey("Paused pulls are not starvation", func() {
			sink.Pause()
			device.drain(256)

			So(sink.Underruns(), ShouldEqual, 0)
		})
	})
}

func TestOutputFormat(t *testing.T) {
	Convey("Mono material stays mono, anything wider folds to stereo", t, func() {
		info := media.Info{Channels: 1}
		So(OutputFormat(info).Channels, ShouldEqual, 1)

		info.Channels = 2
		So(OutputFormat(info).Channels, ShouldEqual, 2)

		info.Channels = 6
		So(OutputFormat(info).Channels, ShouldEqual, 2)

		info.Channels = 0
		So(OutputFormat(info).Channels, ShouldEqual, 2)
	})

	Convey("The output sample rate comes from configuration", t, func() {
		viper.Set(key.PlaybackSampleRate, 44100)
		defer viper.Set(key.PlaybackSampleRate, 0)

		So(OutputFormat(media.Info{}).SampleRate, ShouldEqual, 44100)
	})

	Convey("An unset rate falls back to studio standard", t, func() {
		So(OutputFormat(media.Info{}).SampleRate, ShouldEqual, 48000)
	})
}

func TestSinkDevices(t *testing.T) {
	format := Format{SampleRate: 48000, Channels: 2}

	Convey("Open starts the sink on the rerouted output device", t, func() {
		device := &manualDevice{}
		SetOutputDevice(func() Device { return device })
		defer SetOutputDevice(nil)

		sink, err := Open(format, 3)
		So(err, ShouldBeNil)
		So(device.pull, ShouldNotBeNil)
		So(sink.Silent(), ShouldBeFalse)
		So(sink.PlayedPosition(), ShouldEqual, 3)
		So(sink.Close(), ShouldBeNil)
		So(device.closed, ShouldBeTrue)
	})

	Convey("Open falls back to silent playback when the rerouted device is dead", t, func() {
		SetOutputDevice(func() Device { return deadDevice{} })
		defer SetOutputDevice(nil)

		sink, err := Open(format, 0)
		So(err, ShouldBeNil)
		So(sink.Silent(), ShouldBeTrue)
		So(sink.Close(), ShouldBeNil)
	})

	Convey("A dead device surfaces as unavailable", t, func() {
		sink := NewSink(deadDevice{}, format)

		err := sink.Start(0)
		So(err, ShouldNotBeNil)
		So(media.IsDeviceKind(err, media.DeviceUnavailable), ShouldBeTrue)
	})

	Convey("The wall paced device drains pushed frames on its own", t, func() {
		sink := NewSink(NewNullDevice(), format)
		So(sink.Start(0), ShouldBeNil)

		defer func() {
			So(sink.Close(), ShouldBeNil)
		}()

		for i := 0; i < 10; i++ {
			So(sink.Push(tone(0, 2048, 0, format)), ShouldBeNil)
		}

		time.Sleep(120 * time.Millisecond)

		position := sink.PlayedPosition()
		So(position, ShouldBeGreaterThan, 0)
		So(position, ShouldBeLessThan, 0.5)
	})
}
