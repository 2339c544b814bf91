package ffmpeg

import (
	"testing"

	"github.com/montage-cli/montage/media"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseSilence(t *testing.T) {
	Convey("parseSilence", t, func() {
		lines := []string{
			"[silencedetect @ 0x5565] silence_start: 1.5",
			"[silencedetect @ 0x5565] silence_end: 3.0 | silence_duration: 1.5",
			"frame= 250 fps=0.0 q=-0.0 size=N/A time=00:00:10.00 bitrate=N/A speed= 512x",
			"[silencedetect @ 0x5565] silence_start: 7.25",
			"[silencedetect @ 0x5565] silence_end: 8.0 | silence_duration: 0.75",
		}

		ranges := parseSilence(lines, 10)
		So(ranges, ShouldResemble, []Range{{Start: 1.5, End: 3}, {Start: 7.25, End: 8}})
		So(ranges[0].Duration(), ShouldAlmostEqual, 1.5, 1e-9)

		Convey("Closes a trailing silence at the media duration", func() {
			open := parseSilence([]string{"silence_start: 9.0"}, 10)
			So(open, ShouldResemble, []Range{{Start: 9, End: 10}})
		})

		Convey("Clamps the leading silence to zero", func() {
			// silencedetect reports small negative starts at the head of a file.
			neg := parseSilence([]string{"silence_start: -0.01", "silence_end: 2.0"}, 10)
			So(neg, ShouldResemble, []Range{{Start: 0, End: 2}})
		})

		Convey("Ignores an end without a start", func() {
			So(parseSilence([]string{"silence_end: 4.0"}, 10), ShouldBeEmpty)
		})
	})
}

func TestCutPoints(t *testing.T) {
	Convey("CutPoints", t, func() {
		ranges := []Range{{Start: 2, End: 4}, {Start: 6, End: 8}}

		Convey("Complements silence into kept content ranges", func() {
			cuts := CutPoints(ranges, 10, 0)
			So(cuts, ShouldResemble, []media.TrimRange{
				{In: 0, Out: 2},
				{In: 4, Out: 6},
				{In: 8, Out: 10},
			})
			for _, c := range cuts {
				So(c.Validate(), ShouldBeNil)
			}
		})

		Convey("Margin keeps breathing room inside each silence", func() {
			cuts := CutPoints(ranges, 10, 0.02)
			// Each 2s silence is shrunk by 0.04s per side.
			So(cuts[0].Out, ShouldAlmostEqual, 2.04, 1e-9)
			So(cuts[1].In, ShouldAlmostEqual, 3.96, 1e-9)
		})

		Convey("Silence spanning the head produces no empty leading cut", func() {
			cuts := CutPoints([]Range{{Start: 0, End: 3}}, 10, 0)
			So(cuts, ShouldResemble, []media.TrimRange{{In: 3, Out: 10}})
		})

		Convey("Silence spanning the tail produces no empty trailing cut", func() {
			cuts := CutPoints([]Range{{Start: 7, End: 10}}, 10, 0)
			So(cuts, ShouldResemble, []media.TrimRange{{In: 0, Out: 7}})
		})

		Convey("Fully silent input yields nothing", func() {
			So(CutPoints([]Range{{Start: 0, End: 10}}, 10, 0), ShouldBeEmpty)
		})

		Convey("No silence keeps the whole file", func() {
			So(CutPoints(nil, 10, 0.02), ShouldResemble, []media.TrimRange{{In: 0, Out: 10}})
		})
	})
}
