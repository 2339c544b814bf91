package util

import (
	"regexp"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeFilename(t *testing.T) {
	Convey("SanitizeFilename", t, func() {
		Convey("Should replace invalid chars", func() {
			So(SanitizeFilename("clip:final?.mp4"), ShouldEqual, "clip_final_.mp4")
		})
		Convey("Should collapse underscores", func() {
			So(SanitizeFilename("clip__final.mp4"), ShouldEqual, "clip_final.mp4")
		})
		Convey("Should trim separators", func() {
			So(SanitizeFilename("-clip-final-"), ShouldEqual, "clip-final")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "frame", "frames"), ShouldEqual, "1 frame")
		So(Quantify(2, "frame", "frames"), ShouldEqual, "2 frames")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("paused"), ShouldEqual, "Paused")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestReGroups(t *testing.T) {
	Convey("ReGroups", t, func() {
		re := regexp.MustCompile(`(?P<kind>\w+)=(?P<value>\w+)`)
		groups := ReGroups(re, "speed=fast")
		So(groups["kind"], ShouldEqual, "speed")
		So(groups["value"], ShouldEqual, "fast")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/clip.mp4"), ShouldEqual, "clip")
		So(FileStem("clip"), ShouldEqual, "clip")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5, 0, 10), ShouldEqual, 5)
		So(Clamp(-1, 0, 10), ShouldEqual, 0)
		So(Clamp(11, 0, 10), ShouldEqual, 10)
		So(Clamp(1.5, 0.5, 2.0), ShouldEqual, 1.5)
	})
}

func TestRing(t *testing.T) {
	Convey("Ring", t, func() {
		r := NewRing[int](3)
		So(r.Len(), ShouldEqual, 0)

		r.Push(1)
		r.Push(2)
		So(r.Items(), ShouldResemble, []int{1, 2})

		Convey("Evicts oldest beyond capacity", func() {
			r.Push(3)
			r.Push(4)
			So(r.Len(), ShouldEqual, 3)
			So(r.Items(), ShouldResemble, []int{2, 3, 4})
		})

		Convey("Clear resets state", func() {
			r.Clear()
			So(r.Len(), ShouldEqual, 0)
			So(r.Items(), ShouldResemble, []int{})
		})
	})
}
