package cache

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/montage-cli/montage/filesystem"
)

func TestStore(t *testing.T) {
	Convey("Given an in-memory store", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		store := New("/cache", time.Hour)

		type payload struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		}

		Convey("Entries round-trip through JSON", func() {
			So(store.Write("abc", payload{Name: "clip", Value: 4.2}), ShouldBeNil)

			var got payload
			So(store.Read("abc", &got), ShouldBeTrue)
			So(got, ShouldResemble, payload{Name: "clip", Value: 4.2})
		})

		Convey("Missing entries read as absent", func() {
			var got payload
			So(store.Read("nope", &got), ShouldBeFalse)
		})

		Convey("Expired entries read as absent and are swept", func() {
			So(store.Write("old", payload{Name: "stale"}), ShouldBeNil)

			past := time.Now().Add(-2 * time.Hour)
			So(filesystem.API().Chtimes("/cache/old", past, past), ShouldBeNil)

			var got payload
			So(store.Read("old", &got), ShouldBeFalse)

			store.sweep()

			exists, err := filesystem.API().Exists("/cache/old")
			So(err, ShouldBeNil)
			So(exists, ShouldBeFalse)
		})

		Convey("Sweeping keeps fresh entries", func() {
			So(store.Write("fresh", payload{Name: "keep"}), ShouldBeNil)

			store.sweep()

			var got payload
			So(store.Read("fresh", &got), ShouldBeTrue)
		})
	})
}

func TestGenerateKey(t *testing.T) {
	Convey("Keys are deterministic and part-sensitive", t, func() {
		So(GenerateKey("a", "b"), ShouldEqual, GenerateKey("a", "b"))
		So(GenerateKey("a", "b"), ShouldNotEqual, GenerateKey("ab"))
		So(GenerateKey("a", "b"), ShouldNotEqual, GenerateKey("a", "c"))
		So(GenerateKey("a", "b"), ShouldHaveLength, 64)
	})
}
