package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatTime(t *testing.T) {
	Convey("FormatTime", t, func() {
		So(FormatTime(0), ShouldEqual, "00:00")
		So(FormatTime(59.9), ShouldEqual, "00:59")
		So(FormatTime(75), ShouldEqual, "01:15")
		So(FormatTime(3600), ShouldEqual, "1:00:00")
		So(FormatTime(3725), ShouldEqual, "1:02:05")

		Convey("Negative values clamp to zero", func() {
			So(FormatTime(-5), ShouldEqual, "00:00")
		})
	})
}

func TestFormatTimePrecise(t *testing.T) {
	Convey("FormatTimePrecise", t, func() {
		So(FormatTimePrecise(0), ShouldEqual, "00:00:00.000")
		So(FormatTimePrecise(4), ShouldEqual, "00:00:04.000")
		So(FormatTimePrecise(61.25), ShouldEqual, "00:01:01.250")
		So(FormatTimePrecise(3661.5), ShouldEqual, "01:01:01.500")

		Convey("Rounded millis carry into seconds", func() {
			So(FormatTimePrecise(1.9999), ShouldEqual, "00:00:02.000")
		})
	})
}

func TestParseTime(t *testing.T) {
	Convey("ParseTime", t, func() {
		Convey("Accepts plain seconds", func() {
			v, err := ParseTime("4")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 4.0)
		})

		Convey("Accepts fractional seconds", func() {
			v, err := ParseTime("4.5")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 4.5)
		})

		Convey("Accepts MM:SS", func() {
			v, err := ParseTime("01:15")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 75.0)
		})

		Convey("Accepts HH:MM:SS.ss", func() {
			v, err := ParseTime("00:00:04.00")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 4.0)
		})

		Convey("Round-trips with FormatTimePrecise", func() {
			v, err := ParseTime(FormatTimePrecise(3725.5))
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 3725.5, 0.001)
		})

		Convey("Rejects malformed input", func() {
			for _, s := range []string{"", "a:b", "1:2:3:4", "-1", "1:-2"} {
				_, err := ParseTime(s)
				So(err, ShouldNotBeNil)
			}
		})
	})
}
