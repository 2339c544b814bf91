package history

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/montage-cli/montage/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given a clean history", t, func() {
		So(Clear(), ShouldBeNil)

		Convey("Saving keeps the newest position for a path", func() {
			So(Save("/media/film.mp4", 120.5, 600), ShouldBeNil)
			So(Save("/media/film.mp4", 130, 600), ShouldBeNil)

			position, ok := For("/media/film.mp4")
			So(ok, ShouldBeTrue)
			So(position.Position, ShouldEqual, 130)
			So(position.Duration, ShouldEqual, 600)
			So(position.Name, ShouldEqual, "film")
			So(position.Percent(), ShouldAlmostEqual, 130.0/600*100)
		})

		Convey("Relative and absolute spellings meet in one entry", func() {
			cwd, err := os.Getwd()
			So(err, ShouldBeNil)

			So(Save("film.mp4", 10, 100), ShouldBeNil)

			position, ok := For(filepath.Join(cwd, "film.mp4"))
			So(ok, ShouldBeTrue)
			So(position.Position, ShouldEqual, 10)
		})

		Convey("A position past the completion percentage clears the entry", func() {
			So(Save("/media/done.mp4", 50, 600), ShouldBeNil)
			So(Save("/media/done.mp4", 580, 600), ShouldBeNil)

			_, ok := For("/media/done.mp4")
			So(ok, ShouldBeFalse)
		})

		Convey("Removing forgets a single path", func() {
			So(Save("/media/one.mp4", 10, 100), ShouldBeNil)
			So(Save("/media/two.mp4", 20, 100), ShouldBeNil)
			So(Remove("/media/one.mp4"), ShouldBeNil)

			_, ok := For("/media/one.mp4")
			So(ok, ShouldBeFalse)

			saved, err := Get()
			So(err, ShouldBeNil)
			So(saved, ShouldHaveLength, 1)
		})

		Convey("Clearing forgets everything", func() {
			So(Save("/media/one.mp4", 10, 100), ShouldBeNil)
			So(Clear(), ShouldBeNil)

			saved, err := Get()
			So(err, ShouldBeNil)
			So(saved, ShouldBeEmpty)
		})

		Convey("A duration of zero never counts as complete", func() {
			So(Save("/media/stream.mp4", 4242, 0), ShouldBeNil)

			position, ok := For("/media/stream.mp4")
			So(ok, ShouldBeTrue)
			So(position.Percent(), ShouldEqual, 0)
		})
	})
}
