package waveform

import (
	"bufio"
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"

	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/media"
)

func TestReduce(t *testing.T) {
	Convey("Reducing samples to buckets", t, func() {
		Convey("Keeps the extremes of each equal span", func() {
			samples := []int16{0, 16384, -16384, 32767}
			buckets := reduce(samples, 2)

			So(buckets, ShouldHaveLength, 2)
			So(buckets[0].Min, ShouldEqual, 0)
			So(buckets[0].Max, ShouldEqual, 0.5)
			So(buckets[1].Min, ShouldEqual, -0.5)
			So(buckets[1].Max, ShouldAlmostEqual, float32(32767)/32768, 1e-6)
		})

		Convey("Produces the requested count even with fewer samples", func() {
			buckets := reduce([]int16{32767}, 4)

			So(buckets, ShouldHaveLength, 4)
			So(buckets[0], ShouldResemble, media.Bucket{})
			So(buckets[3].Max, ShouldAlmostEqual, float32(32767)/32768, 1e-6)
		})

		Convey("Yields silent buckets for no samples at all", func() {
			buckets := reduce(nil, 3)

			So(buckets, ShouldHaveLength, 3)
			for _, bucket := range buckets {
				So(bucket, ShouldResemble, media.Bucket{})
			}
		})

		Convey("Is deterministic", func() {
			samples := []int16{12, -44, 9000, -31000, 245, 11}

			So(reduce(samples, 3), ShouldResemble, reduce(samples, 3))
		})
	})
}

func TestReadSamples(t *testing.T) {
	Convey("Reading a raw sample stream", t, func() {
		Convey("Decodes little endian pairs and salvages a trailing odd byte", func() {
			raw := []byte{0x00, 0x80, 0xFF, 0x7F, 0xAB}
			samples, err := readSamples(bufio.NewReader(bytes.NewReader(raw)))

			So(err, ShouldBeNil)
			So(samples, ShouldResemble, []int16{-32768, 32767})
		})

		Convey("Handles an empty stream", func() {
			samples, err := readSamples(bufio.NewReader(bytes.NewReader(nil)))

			So(err, ShouldBeNil)
			So(samples, ShouldBeEmpty)
		})
	})
}

func TestRender(t *testing.T) {
	Convey("Rendering an envelope", t, func() {
		Convey("Maps bucket magnitudes onto the glyph ramp", func() {
			env := media.WaveformEnvelope{Buckets: []media.Bucket{{}, {Min: -1, Max: 1}}}

			So(Render(env, 2), ShouldEqual, " █")
		})

		Convey("Stretches buckets across a wider output", func() {
			env := media.WaveformEnvelope{Buckets: []media.Bucket{{}, {Min: -1, Max: 1}}}

			So(Render(env, 4), ShouldEqual, "  ██")
		})

		Convey("Scales against the envelope's own peak", func() {
			env := media.WaveformEnvelope{Buckets: []media.Bucket{
				{Min: -0.25, Max: 0.25},
				{Min: -0.5, Max: 0.5},
			}}

			So(Render(env, 2), ShouldEqual, "▄█")
		})

		Convey("Draws silence as blanks", func() {
			env := media.WaveformEnvelope{Buckets: make([]media.Bucket, 4)}

			So(Render(env, 4), ShouldEqual, "    ")
		})

		Convey("Yields nothing without buckets or width", func() {
			So(Render(media.WaveformEnvelope{}, 10), ShouldEqual, "")
			So(Render(media.WaveformEnvelope{Buckets: make([]media.Bucket, 2)}, 0), ShouldEqual, "")
		})
	})
}

func TestCacheKey(t *testing.T) {
	Convey("Given a file on an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		path := "/media/clip.mp4"
		So(afero.WriteFile(filesystem.API(), path, []byte("payload"), 0o644), ShouldBeNil)

		first, ok := cacheKey(path, 100, 1000)
		So(ok, ShouldBeTrue)

		Convey("The key is stable while the file is unchanged", func() {
			again, ok := cacheKey(path, 100, 1000)

			So(ok, ShouldBeTrue)
			So(again, ShouldEqual, first)
		})

		Convey("Reduction parameters are part of the identity", func() {
			buckets, _ := cacheKey(path, 200, 1000)
			rate, _ := cacheKey(path, 100, 8000)

			So(buckets, ShouldNotEqual, first)
			So(rate, ShouldNotEqual, first)
		})

		Convey("Rewriting the file changes the identity", func() {
			So(afero.WriteFile(filesystem.API(), path, []byte("longer payload"), 0o644), ShouldBeNil)

			changed, ok := cacheKey(path, 100, 1000)

			So(ok, ShouldBeTrue)
			So(changed, ShouldNotEqual, first)
		})

		Convey("A missing file bypasses the cache", func() {
			_, ok := cacheKey("/media/absent.mp4", 100, 1000)

			So(ok, ShouldBeFalse)
		})
	})
}
