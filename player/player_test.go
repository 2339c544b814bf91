package player

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/montage-cli/montage/audio"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/source"
)

func init() {
	// Keep playback off the real audio backend; the silent device paces
	// consumption by wall time alone.
	audio.SetOutputDevice(audio.NewNullDevice)
}

type presentLog struct {
	mu  sync.Mutex
	pts []float64
}

func (l *presentLog) collect(frame media.VideoFrame) {
	l.mu.Lock()
	l.pts = append(l.pts, frame.PTS)
	l.mu.Unlock()
}

func (l *presentLog) timestamps() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]float64(nil), l.pts...)
}

func clipInfo(duration float64, video, audio bool) media.Info {
	info := media.Info{
		Path:     "/videos/clip.mp4",
		Duration: duration,
		HasVideo: video,
		HasAudio: audio,
	}

	if video {
		info.Width = 640
		info.Height = 360
		info.FrameRate = 30
		info.FrameRateNum = 30
		info.FrameRateDen = 1
	}

	if audio {
		info.SampleRate = 48000
		info.Channels = 2
	}

	return info
}

func clip(duration float64, video, audio bool) *source.Synthetic {
	info := clipInfo(duration, video, audio)

	fps := 0.0
	if video {
		fps = 30
	}

	rate := 0
	if audio {
		rate = 48000
	}

	return source.NewSynthetic(info, source.Timeline(duration, fps, rate, 2))
}

func waitStatus(p *Player, timeout time.Duration, cond func(Status) bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond(p.Status()) {
			return true
		}

		time.Sleep(5 * time.Millisecond)
	}

	return false
}

func TestPlaybackEndToEnd(t *testing.T) {
	Convey("Given a one second clip with both tracks", t, func() {
		src := clip(1, true, true)
		log := &presentLog{}
		p := New(src, log.collect)

		So(p.Start(context.Background(), 0), ShouldBeNil)
		defer func() {
			So(p.Close(), ShouldBeNil)
		}()

		Convey("Playback runs to the end and stops on its own", func() {
			finished := waitStatus(p, 5*time.Second, func(s Status) bool {
				return s.State == Stopped
			})
			So(finished, ShouldBeTrue)

			status := p.Status()
			So(status.Err, ShouldBeNil)
			So(status.Position, ShouldEqual, 1)

			Convey("With a non-decreasing presented sequence", func() {
				pts := log.timestamps()
				So(len(pts), ShouldBeGreaterThan, 10)
				So(sort.Float64sAreSorted(pts), ShouldBeTrue)
			})
		})
	})
}

func TestPlaybackFullClip(t *testing.T) {
	if testing.Short() {
		t.Skip("plays a ten second clip in real time")
	}

	Convey("Given a ten second 30fps 48kHz clip", t, func() {
		src := clip(10, true, true)
		p := New(src, nil)

		So(p.Start(context.Background(), 0), ShouldBeNil)
		defer func() {
			So(p.Close(), ShouldBeNil)
		}()

		So(waitStatus(p, 2*time.Second, func(s Status) bool {
			return s.State == Playing && s.Position > 0.05
		}), ShouldBeTrue)

		Convey("A mid clip seek lands within one frame duration", func() {
			p.Pause()
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.State == Paused
			}), ShouldBeTrue)

			p.Seek(5)
			So(waitStatus(p, 3*time.Second, func(s Status) bool {
				return s.State == Paused && s.Position >= 5
			}), ShouldBeTrue)

			status := p.Status()
			So(status.Position, ShouldBeGreaterThanOrEqualTo, 5)
			So(status.Position, ShouldBeLessThan, 5+1.0/30)

			Convey("And the back half plays out to a clean stop", func() {
				p.Resume()

				So(waitStatus(p, 10*time.Second, func(s Status) bool {
					return s.Position >= 9.9
				}), ShouldBeTrue)

				So(waitStatus(p, 5*time.Second, func(s Status) bool {
					return s.State == Stopped
				}), ShouldBeTrue)

				status := p.Status()
				So(status.Position, ShouldEqual, 10)
				So(status.Err, ShouldBeNil)
			})
		})
	})
}

func TestPlaybackPauseResume(t *testing.T) {
	Convey("Given a playing clip", t, func() {
		src := clip(2, true, false)
		p := New(src, nil)

		So(p.Start(context.Background(), 0), ShouldBeNil)
		defer func() {
			So(p.Close(), ShouldBeNil)
		}()

		So(waitStatus(p, time.Second, func(s Status) bool {
			return s.State == Playing && s.Position > 0.05
		}), ShouldBeTrue)

		Convey("Pausing freezes the position", func() {
			p.Pause()
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.State == Paused
			}), ShouldBeTrue)

			frozen := p.Status().Position
			time.Sleep(60 * time.Millisecond)
			So(p.Status().Position, ShouldEqual, frozen)

			Convey("And resuming continues from it", func() {
				p.Resume()

				So(waitStatus(p, time.Second, func(s Status) bool {
					return s.State == Playing && s.Position > frozen
				}), ShouldBeTrue)

				So(p.Status().Position, ShouldBeLessThan, frozen+0.5)
			})
		})
	})
}

func TestPlaybackSeek(t *testing.T) {
	Convey("Given a paused clip with both tracks", t, func() {
		src := clip(2, true, true)
		log := &presentLog{}
		p := New(src, log.collect)

		So(p.Start(context.Background(), 0), ShouldBeNil)
		defer func() {
			So(p.Close(), ShouldBeNil)
		}()

		So(waitStatus(p, time.Second, func(s Status) bool {
			return s.State == Playing && s.Position > 0.02
		}), ShouldBeTrue)

		p.Pause()
		So(waitStatus(p, time.Second, func(s Status) bool {
			return s.State == Paused
		}), ShouldBeTrue)

		Convey("Seeking lands the clock on the target", func() {
			before := len(log.timestamps())

			p.Seek(1)
			So(waitStatus(p, 3*time.Second, func(s Status) bool {
				return s.State == Paused && s.Position >= 1
			}), ShouldBeTrue)

			status := p.Status()
			So(status.Position, ShouldBeGreaterThanOrEqualTo, 1)
			So(status.Position, ShouldBeLessThan, 1+1.0/30)

			Convey("And no frame from before the target is presented afterwards", func() {
				p.Resume()
				So(waitStatus(p, time.Second, func(s Status) bool {
					return s.Presented > before
				}), ShouldBeTrue)

				time.Sleep(100 * time.Millisecond)

				after := log.timestamps()[before:]
				So(len(after), ShouldBeGreaterThan, 0)
				for _, pts := range after {
					So(pts, ShouldBeGreaterThanOrEqualTo, 1)
				}
			})
		})

		Convey("Seeking past the end clamps and finishes playback", func() {
			p.Resume()
			p.Seek(50)

			So(waitStatus(p, 3*time.Second, func(s Status) bool {
				return s.State == Stopped
			}), ShouldBeTrue)

			So(p.Status().Position, ShouldEqual, 2)
		})
	})
}

func TestPlaybackDropsUnderLoad(t *testing.T) {
	Convey("A presenter slower than the frame rate forces drops", t, func() {
		src := clip(1, true, false)
		log := &presentLog{}

		slow := func(frame media.VideoFrame) {
			log.collect(frame)
			time.Sleep(40 * time.Millisecond)
		}

		p := New(src, slow)
		So(p.Start(context.Background(), 0), ShouldBeNil)
		defer func() {
			So(p.Close(), ShouldBeNil)
		}()

		So(waitStatus(p, 5*time.Second, func(s Status) bool {
			return s.State == Stopped
		}), ShouldBeTrue)

		status := p.Status()
		So(status.Dropped, ShouldBeGreaterThan, 0)

		pts := log.timestamps()
		So(sort.Float64sAreSorted(pts), ShouldBeTrue)
		So(len(pts), ShouldBeLessThan, 30)
	})
}

func TestPlaybackCommands(t *testing.T) {
	Convey("Given a playing clip with audio", t, func() {
		src := clip(2, true, true)
		p := New(src, nil)

		So(p.Start(context.Background(), 0), ShouldBeNil)
		defer func() {
			So(p.Close(), ShouldBeNil)
		}()

		Convey("Rates are clamped to the supported band", func() {
			p.SetRate(5)
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.Rate == MaxRate
			}), ShouldBeTrue)

			p.SetRate(0.1)
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.Rate == MinRate
			}), ShouldBeTrue)
		})

		Convey("Volume changes land in the snapshot", func() {
			p.SetVolume(0.3)
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.Volume > 0.29 && s.Volume < 0.31
			}), ShouldBeTrue)
		})

		Convey("Stop keeps the position for a later restart", func() {
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.Position > 0.05
			}), ShouldBeTrue)

			p.Stop()
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.State == Stopped
			}), ShouldBeTrue)

			stopped := p.Status().Position
			So(stopped, ShouldBeGreaterThan, 0)

			p.Play()
			So(waitStatus(p, time.Second, func(s Status) bool {
				return s.State == Playing
			}), ShouldBeTrue)

			So(p.Status().Position, ShouldBeGreaterThanOrEqualTo, stopped)
		})
	})
}

func TestPlaybackSubscribe(t *testing.T) {
	Convey("Subscribers see transitions and the channel closes with the player", t, func() {
		src := clip(1, true, false)
		p := New(src, nil)
		sub := p.Subscribe()

		So(p.Start(context.Background(), 0), ShouldBeNil)

		sawPlaying := false
		sawClosed := false
		deadline := time.After(3 * time.Second)

	drain:
		for {
			select {
			case status, ok := <-sub:
				if !ok {
					sawClosed = true
					break drain
				}

				if status.State == Playing {
					sawPlaying = true
				}

				if status.State == Stopped && sawPlaying {
					So(p.Close(), ShouldBeNil)
				}
			case <-deadline:
				break drain
			}
		}

		So(sawPlaying, ShouldBeTrue)
		So(sawClosed, ShouldBeTrue)
	})
}
