// Package ffmpeg integrates the external decoding and transcoding engine.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
)

// Range is one contiguous stretch of audio at or below the silence threshold.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the range in seconds.
func (r Range) Duration() float64 {
	return r.End - r.Start
}

// Silence Filter Output Tokens - emitted by the engine's silencedetect filter
// on its diagnostic stream.
var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9.]+)`)
)

// DetectSilence runs the engine's silencedetect filter over the audio track
// and returns the quiet stretches found. The decoded output is discarded;
// only the diagnostic stream is consumed.
func DetectSilence(ctx context.Context, info media.Info, thresholdDB int, minDuration float64) ([]Range, error) {
	if !info.HasAudio {
		return nil, media.NewDecodeError(media.DecodeUnsupported, info.Path, errNoAudioTrack)
	}

	cmd := exec.CommandContext(
		ctx, Path(),
		"-hide_banner",
		"-i", info.Path,
		"-af", fmt.Sprintf("silencedetect=noise=%ddB:d=%g", thresholdDB, minDuration),
		"-f", "null", "-",
	)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, media.NewDecodeError(media.DecodeIO, info.Path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, media.NewDecodeError(media.DecodeIO, info.Path, err)
	}

	var lines []string
	scanner := NewStatusScanner(stderr)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		return nil, media.NewDecodeError(media.DecodeCorrupt, info.Path, err)
	}

	ranges := parseSilence(lines, info.Duration)
	log.Debugf("silencedetect: %d range(s) in %s", len(ranges), info.Path)
	return ranges, nil
}

// parseSilence pairs silence_start and silence_end tokens into ranges.
// A trailing start with no matching end means the file ends silent; the range
// is closed at the media duration.
func parseSilence(lines []string, duration float64) []Range {
	var (
		ranges  []Range
		start   float64
		pending bool
	)

	for _, line := range lines {
		if matches := silenceStartRe.FindStringSubmatch(line); len(matches) > 1 {
			if v, err := strconv.ParseFloat(matches[1], 64); err == nil {
				if v < 0 {
					v = 0
				}
				start = v
				pending = true
			}
			continue
		}

		if matches := silenceEndRe.FindStringSubmatch(line); len(matches) > 1 && pending {
			if v, err := strconv.ParseFloat(matches[1], 64); err == nil && v > start {
				ranges = append(ranges, Range{Start: start, End: v})
			}
			pending = false
		}
	}

	if pending && duration > start {
		ranges = append(ranges, Range{Start: start, End: duration})
	}

	return ranges
}

// CutPoints converts detected silence into the content ranges worth keeping,
// expressed as validated trim ranges over [0, duration]. Each silence stretch
// is shrunk by margin (a fraction of its own length) on both sides so cuts
// keep a little breathing room around the audible material.
func CutPoints(ranges []Range, duration, margin float64) []media.TrimRange {
	if duration <= 0 {
		return nil
	}
	if margin < 0 {
		margin = 0
	}

	var cuts []media.TrimRange
	cursor := 0.0

	for _, r := range ranges {
		pad := r.Duration() * margin
		cutStart := r.Start + pad
		cutEnd := r.End - pad

		if cutStart > cursor {
			cuts = append(cuts, media.TrimRange{In: cursor, Out: cutStart}.Clamp(duration))
		}
		if cutEnd > cursor {
			cursor = cutEnd
		}
	}

	if cursor < duration {
		cuts = append(cuts, media.TrimRange{In: cursor, Out: duration})
	}

	// Drop degenerate slivers produced by overlapping or boundary ranges.
	kept := cuts[:0]
	for _, c := range cuts {
		if c.Duration() > 1e-9 {
			kept = append(kept, c)
		}
	}
	return kept
}
