// Package waveform reduces audio tracks to compact amplitude envelopes for
// timeline previews.
package waveform

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/internal/cache"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
	"github.com/montage-cli/montage/where"
)

const (
	defaultBuckets    = 200
	defaultSampleRate = 1000

	readChunk = 1 << 15
)

var errNoAudio = errors.New("no audio track to extract a waveform from")

// Extract reduces the audio track of path into a bucketCount bucket
// envelope of per-span sample extremes. A bucketCount of zero uses the
// configured default. Envelopes are cached on disk keyed by the file
// identity, so repeated extractions are free until the file changes.
func Extract(ctx context.Context, path string, bucketCount int) (media.WaveformEnvelope, error) {
	if bucketCount <= 0 {
		bucketCount = viper.GetInt(key.WaveformBuckets)
	}
	if bucketCount <= 0 {
		bucketCount = defaultBuckets
	}

	info, err := ffmpeg.Probe(ctx, path)
	if err != nil {
		return media.WaveformEnvelope{}, err
	}

	if !info.HasAudio {
		return media.WaveformEnvelope{}, media.NewDecodeError(media.DecodeUnsupported, path, errNoAudio)
	}

	rate := viper.GetInt(key.WaveformSampleRate)
	if rate <= 0 {
		rate = defaultSampleRate
	}

	store := envelopeStore()
	ck, keyed := cacheKey(path, bucketCount, rate)
	if keyed {
		var env media.WaveformEnvelope
		if store.Read(ck, &env) && env.BucketCount() == bucketCount {
			log.Debugf("waveform of %s served from cache", path)
			return env, nil
		}
	}

	samples, err := decodeSamples(ctx, path, rate)
	if err != nil {
		return media.WaveformEnvelope{}, err
	}

	duration := info.Duration
	if duration <= 0 {
		duration = float64(len(samples)) / float64(rate)
	}

	env := media.WaveformEnvelope{
		Path:       path,
		Duration:   duration,
		SampleRate: rate,
		Buckets:    reduce(samples, bucketCount),
	}

	if keyed {
		if err := store.Write(ck, env); err != nil {
			log.Warnf("waveform cache write for %s failed: %v", path, err)
		}
	}

	log.Infof("extracted %d bucket waveform of %s", bucketCount, path)
	return env, nil
}

// CollectGarbage prunes expired envelopes from the disk cache.
func CollectGarbage() {
	envelopeStore().CollectGarbage()
}

func envelopeStore() *cache.Store {
	ttl := time.Duration(viper.GetInt(key.WaveformCacheTTL)) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return cache.New(where.Waveforms(), ttl)
}

// cacheKey identifies an envelope by the source file's path, size and
// modification time plus the reduction parameters. An unreadable file
// reports false and bypasses the cache.
func cacheKey(path string, bucketCount, rate int) (string, bool) {
	stat, err := filesystem.API().Stat(path)
	if err != nil {
		return "", false
	}

	return cache.GenerateKey(
		path,
		strconv.FormatInt(stat.Size(), 10),
		strconv.FormatInt(stat.ModTime().UnixNano(), 10),
		strconv.Itoa(bucketCount),
		strconv.Itoa(rate),
	), true
}

// decodeSamples runs the engine's mono mixdown of path and collects every
// sample it emits.
func decodeSamples(ctx context.Context, path string, rate int) ([]int16, error) {
	cmd := exec.CommandContext(ctx, ffmpeg.Path(), extractArgs(path, rate)...)

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, media.NewDecodeError(media.DecodeIO, path, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, media.NewDecodeError(media.DecodeIO, path, err)
	}

	samples, readErr := readSamples(bufio.NewReaderSize(out, readChunk))
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if readErr != nil {
		return nil, media.NewDecodeError(media.DecodeIO, path, readErr)
	}

	if waitErr != nil {
		return nil, media.NewDecodeError(media.DecodeCorrupt, path, waitErr)
	}

	return samples, nil
}

// extractArgs builds the engine invocation that mixes the first audio
// stream down to mono s16le samples on stdout.
func extractArgs(path string, rate int) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-i", path,
		"-map", "0:a:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "1",
		"-",
	}
}

func readSamples(reader *bufio.Reader) ([]int16, error) {
	var samples []int16

	buf := make([]byte, readChunk)
	for {
		n, err := io.ReadFull(reader, buf)
		if err == io.EOF {
			return samples, nil
		}
		if err == io.ErrUnexpectedEOF {
			// Salvage the whole samples of the trailing short read.
			return appendSamples(samples, buf[:n-n%2]), nil
		}
		if err != nil {
			return nil, err
		}

		samples = appendSamples(samples, buf[:n])
	}
}

func appendSamples(samples []int16, data []byte) []int16 {
	for i := 0; i+1 < len(data); i += 2 {
		samples = append(samples, int16(uint16(data[i])|uint16(data[i+1])<<8))
	}

	return samples
}

// reduce folds samples into count equal spans, keeping the extremes of
// each. Spans with no samples stay at the zero bucket.
func reduce(samples []int16, count int) []media.Bucket {
	buckets := make([]media.Bucket, count)

	for i := range buckets {
		start := i * len(samples) / count
		end := (i + 1) * len(samples) / count
		if start >= end {
			continue
		}

		bucket := media.Bucket{Min: normalize(samples[start]), Max: normalize(samples[start])}
		for _, sample := range samples[start+1 : end] {
			value := normalize(sample)
			if value < bucket.Min {
				bucket.Min = value
			}
			if value > bucket.Max {
				bucket.Max = value
			}
		}

		buckets[i] = bucket
	}

	return buckets
}

func normalize(sample int16) float32 {
	return float32(sample) / 32768
}

// Waveform glyph ramp, lowest to highest amplitude.
var glyphs = []rune(" ▁▂▃▄▅▆▇█")

// Render draws the envelope as a single line of block glyphs, width
// columns wide, scaled to the envelope's own peak.
func Render(env media.WaveformEnvelope, width int) string {
	count := env.BucketCount()
	if width <= 0 || count == 0 {
		return ""
	}

	peak := env.Peak()
	if peak <= 0 {
		peak = 1
	}

	var b strings.Builder
	for col := 0; col < width; col++ {
		start := col * count / width
		end := (col + 1) * count / width
		if end <= start {
			end = start + 1
		}

		var magnitude float32
		for _, bucket := range env.Buckets[start:end] {
			magnitude = util.Max(magnitude, bucket.Max, -bucket.Min)
		}

		level := int(math.Round(float64(magnitude/peak) * float64(len(glyphs)-1)))
		b.WriteRune(glyphs[util.Clamp(level, 0, len(glyphs)-1)])
	}

	return b.String()
}
