package player

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlaybackClock(t *testing.T) {
	Convey("Given an anchored clock", t, func() {
		clock := NewClock()
		clock.Anchor(10)

		Convey("Media time advances with wall time", func() {
			time.Sleep(30 * time.Millisecond)

			now := clock.Now()
			So(now, ShouldBeGreaterThan, 10)
			So(now, ShouldBeLessThan, 10.5)
		})

		Convey("Pausing freezes it", func() {
			clock.Pause()
			frozen := clock.Now()

			time.Sleep(20 * time.Millisecond)
			So(clock.Now(), ShouldEqual, frozen)
			So(clock.Running(), ShouldBeFalse)

			Convey("And resuming continues from the frozen time", func() {
				clock.Resume()

				now := clock.Now()
				So(now, ShouldBeGreaterThanOrEqualTo, frozen)
				So(now, ShouldBeLessThan, frozen+0.5)
			})
		})

		Convey("Seeking moves it without starting or stopping it", func() {
			clock.Seek(42)
			So(clock.Now(), ShouldBeGreaterThanOrEqualTo, 42)
			So(clock.Running(), ShouldBeTrue)

			clock.Pause()
			clock.Seek(7)
			So(clock.Now(), ShouldEqual, 7)
			So(clock.Running(), ShouldBeFalse)
		})
	})

	Convey("Rate changes are continuous and clamped", t, func() {
		clock := NewClock()
		clock.Anchor(5)

		So(clock.SetRate(1.5), ShouldEqual, 1.5)
		So(clock.Rate(), ShouldEqual, 1.5)

		before := clock.Now()
		So(clock.SetRate(0.1), ShouldEqual, MinRate)
		after := clock.Now()

		So(after, ShouldBeGreaterThanOrEqualTo, before)
		So(after, ShouldBeLessThan, before+0.1)

		So(clock.SetRate(99), ShouldEqual, MaxRate)
	})

	Convey("A double rate clock runs twice as fast", t, func() {
		clock := NewClock()
		clock.Anchor(0)
		clock.SetRate(2)

		time.Sleep(50 * time.Millisecond)

		now := clock.Now()
		So(now, ShouldBeGreaterThan, 0.08)
		So(now, ShouldBeLessThan, 0.6)
	})
}
