// Package ffmpeg integrates the external decoding and transcoding engine.
package ffmpeg

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"

	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
)

// Recognized Status Tokens - the engine interleaves these on its stats lines.
// Tokens appear both at line start and mid-line, with optional space padding
// after the equals sign.
var (
	frameRe   = regexp.MustCompile(`(?:^|\s)frame=\s*(\d+)`)
	fpsRe     = regexp.MustCompile(`(?:^|\s)fps=\s*([0-9.]+)`)
	timeRe    = regexp.MustCompile(`(?:^|\s)time=\s*([0-9:.]+)`)
	sizeRe    = regexp.MustCompile(`(?:^|\s)L?size=\s*([0-9.]+[a-zA-Z]*)`)
	bitrateRe = regexp.MustCompile(`(?:^|\s)bitrate=\s*([0-9.]+[a-zA-Z/]*)`)
	speedRe   = regexp.MustCompile(`(?:^|\s)speed=\s*([0-9.]+)x`)
)

// Status captures the tokens recognized on one engine status line.
// Elapsed and Speed are the contractual fields; the remainder are
// display extras that stay zero-valued when absent.
type Status struct {
	Frame   int64
	FPS     float64
	Elapsed float64
	Size    string
	Bitrate string
	Speed   float64
}

// Event converts the status into a progress event against a known total
// duration, which the stats stream itself never restates.
func (s Status) Event(total float64) media.ProgressEvent {
	return media.ProgressEvent{Elapsed: s.Elapsed, Total: total, Speed: s.Speed}
}

// ParseLine extracts progress tokens from a single line of engine output.
// It is pure and total: any input yields either a recognized Status or
// ok=false, never an error. A line counts as recognized only when it carries
// an elapsed-time or speed token; everything else the engine prints
// (headers, stream mappings, warnings) is ignored.
func ParseLine(line string) (status Status, ok bool) {
	if matches := timeRe.FindStringSubmatch(line); len(matches) > 1 {
		if elapsed, err := util.ParseTime(matches[1]); err == nil {
			status.Elapsed = elapsed
			ok = true
		}
	}

	if matches := speedRe.FindStringSubmatch(line); len(matches) > 1 {
		if speed, err := strconv.ParseFloat(matches[1], 64); err == nil {
			status.Speed = speed
			ok = true
		}
	}

	if !ok {
		return Status{}, false
	}

	if matches := frameRe.FindStringSubmatch(line); len(matches) > 1 {
		if frame, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			status.Frame = frame
		}
	}
	if matches := fpsRe.FindStringSubmatch(line); len(matches) > 1 {
		if fps, err := strconv.ParseFloat(matches[1], 64); err == nil {
			status.FPS = fps
		}
	}
	if matches := sizeRe.FindStringSubmatch(line); len(matches) > 1 {
		status.Size = matches[1]
	}
	if matches := bitrateRe.FindStringSubmatch(line); len(matches) > 1 {
		status.Bitrate = matches[1]
	}

	return status, true
}

// scanStatusLines splits engine output on both newlines and carriage returns,
// since the engine rewrites its stats line in place with a bare CR.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	// Incomplete line; wait for more output.
	return 0, nil, nil
}

// NewStatusScanner wraps engine output in a line scanner that tolerates
// CR-rewritten stats lines and arbitrary chunking of the underlying stream.
func NewStatusScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanStatusLines)
	return scanner
}
