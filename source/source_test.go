package source

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/montage-cli/montage/media"
)

func sampleInfo() media.Info {
	return media.Info{
		Path:         "/videos/take.mp4",
		Duration:     10,
		HasVideo:     true,
		HasAudio:     true,
		Width:        1920,
		Height:       1080,
		FrameRate:    30,
		FrameRateNum: 30,
		FrameRateDen: 1,
		SampleRate:   48000,
		Channels:     2,
	}
}

func TestEngineArgs(t *testing.T) {
	Convey("Given stream metadata", t, func() {
		info := sampleInfo()

		Convey("Video arguments map the first video track to raw frames", func() {
			args := videoArgs(info, 0)

			So(args, ShouldContain, "-map")
			So(args, ShouldContain, "0:v:0")
			So(args, ShouldContain, "rawvideo")
			So(args, ShouldContain, "rgba")
			So(args[len(args)-1], ShouldEqual, "-")

			Convey("And force the probed frame rate onto the output", func() {
				So(args, ShouldContain, "-r")
				So(args, ShouldContain, "30/1")
			})

			Convey("Without a seek offset when starting at zero", func() {
				So(args, ShouldNotContain, "-ss")
			})
		})

		Convey("A positive start point becomes an input seek", func() {
			args := videoArgs(info, 5)

			So(args, ShouldContain, "-ss")
			So(args, ShouldContain, "5.000000")

			Convey("Placed before the input file", func() {
				var ss, in int
				for i, arg := range args {
					switch arg {
					case "-ss":
						ss = i
					case "-i":
						in = i
					}
				}

				So(ss, ShouldBeLessThan, in)
			})
		})

		Convey("An unknown frame rate is not forced", func() {
			info.FrameRateNum = 0
			info.FrameRateDen = 0

			So(videoArgs(info, 0), ShouldNotContain, "-r")
		})

		Convey("Audio arguments request interleaved signed 16 bit samples", func() {
			args := audioArgs(info, 0, 48000, 2)

			So(args, ShouldContain, "0:a:0")
			So(args, ShouldContain, "s16le")
			So(args, ShouldContain, "pcm_s16le")
			So(args, ShouldContain, "-ar")
			So(args, ShouldContain, "48000")
			So(args, ShouldContain, "-ac")
			So(args, ShouldContain, "2")
			So(args[len(args)-1], ShouldEqual, "-")
		})
	})
}

func TestClampPosition(t *testing.T) {
	Convey("Given a ten second clip", t, func() {
		Convey("Positions inside the clip pass through", func() {
			So(clampPosition(5, 10), ShouldEqual, 5)
			So(clampPosition(0, 10), ShouldEqual, 0)
			So(clampPosition(10, 10), ShouldEqual, 10)
		})

		Convey("Positions past the end clamp to the duration", func() {
			So(clampPosition(15, 10), ShouldEqual, 10)
		})

		Convey("Negative positions clamp to the start", func() {
			So(clampPosition(-3, 10), ShouldEqual, 0)
		})

		Convey("An unknown duration only guards the lower bound", func() {
			So(clampPosition(123.4, 0), ShouldEqual, 123.4)
			So(clampPosition(-1, 0), ShouldEqual, 0)
		})
	})
}

func TestSynthetic(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scripted two second clip", t, func() {
		info := sampleInfo()
		info.Duration = 2

		s := NewSynthetic(info, Timeline(2, 30, 48000, 2))

		Convey("Reads before Start are rejected", func() {
			_, err := s.NextVideo(ctx)
			So(err, ShouldEqual, errNotStarted)
		})

		Convey("After Start both tracks play out in timestamp order", func() {
			So(s.Start(ctx, 0), ShouldBeNil)

			last := -1.0
			count := 0
			for {
				frame, err := s.NextVideo(ctx)
				if err != nil {
					So(err, ShouldEqual, media.ErrEndOfStream)
					break
				}

				So(frame.PTS, ShouldBeGreaterThan, last)
				last = frame.PTS
				count++
			}

			So(count, ShouldEqual, 60)

			Convey("And audio samples add up to the full clip", func() {
				samples := 0
				for {
					frame, err := s.NextAudio(ctx)
					if err != nil {
						So(err, ShouldEqual, media.ErrEndOfStream)
						break
					}

					samples += frame.Samples()
				}

				So(samples, ShouldEqual, 96000)
			})
		})

		Convey("Seeking discards every frame below the target", func() {
			So(s.Start(ctx, 0), ShouldBeNil)

			position, err := s.Seek(ctx, 1)
			So(err, ShouldBeNil)
			So(position, ShouldEqual, 1)

			video, err := s.NextVideo(ctx)
			So(err, ShouldBeNil)
			So(video.PTS, ShouldBeGreaterThanOrEqualTo, 1)

			audio, err := s.NextAudio(ctx)
			So(err, ShouldBeNil)
			So(audio.PTS, ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("Seeking past the end clamps and leaves both tracks exhausted", func() {
			So(s.Start(ctx, 0), ShouldBeNil)

			position, err := s.Seek(ctx, 50)
			So(err, ShouldBeNil)
			So(position, ShouldEqual, 2)

			_, err = s.NextVideo(ctx)
			So(err, ShouldEqual, media.ErrEndOfStream)

			_, err = s.NextAudio(ctx)
			So(err, ShouldEqual, media.ErrEndOfStream)
		})

		Convey("A cancelled context stops reads", func() {
			So(s.Start(ctx, 0), ShouldBeNil)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := s.NextVideo(cancelled)
			So(err, ShouldEqual, context.Canceled)
		})

		Convey("A closed source refuses everything", func() {
			So(s.Close(), ShouldBeNil)

			So(s.Start(ctx, 0), ShouldEqual, errClosed)

			_, err := s.NextAudio(ctx)
			So(err, ShouldEqual, errClosed)
		})
	})
}

func TestTimeline(t *testing.T) {
	Convey("A scripted timeline covers the requested clip exactly", t, func() {
		script := Timeline(10, 30, 48000, 2)

		videos := 0
		samples := 0
		for _, frame := range script {
			switch frame.Kind() {
			case media.KindVideo:
				videos++
			case media.KindAudio:
				samples += frame.(media.AudioFrame).Samples()
			}
		}

		So(videos, ShouldEqual, 300)
		So(samples, ShouldEqual, 480000)

		Convey("With timestamps never exceeding the duration", func() {
			for _, frame := range script {
				So(frame.Timestamp(), ShouldBeLessThan, 10)
			}
		})

		Convey("And the final audio chunk cut short at the end", func() {
			var last media.AudioFrame
			for _, frame := range script {
				if frame.Kind() == media.KindAudio {
					last = frame.(media.AudioFrame)
				}
			}

			So(last.Samples(), ShouldBeLessThanOrEqualTo, audioChunkSamples)
			So(last.End(), ShouldAlmostEqual, 10, 1e-9)
		})
	})
}
