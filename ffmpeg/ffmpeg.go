// Package ffmpeg integrates the external decoding and transcoding engine:
// binary discovery, media probing, status-line parsing, and silence analysis.
//
// The engine is treated strictly as a black box producing byte streams and
// textual status lines; no codec logic lives on this side of the pipe.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/montage-cli/montage/key"
	"github.com/spf13/viper"
)

// Probe and analysis failure causes.
var (
	errNoStreams    = errors.New("no decodable audio or video streams")
	errNoAudioTrack = errors.New("no audio track")
)

// Path returns the configured ffmpeg binary location.
// Relative values are resolved against PATH at spawn time.
func Path() string {
	if p := viper.GetString(key.EnginePath); p != "" {
		return p
	}
	return "ffmpeg"
}

// ProbePath returns the configured ffprobe binary location.
func ProbePath() string {
	if p := viper.GetString(key.EngineProbePath); p != "" {
		return p
	}
	return "ffprobe"
}

// Available reports whether both engine binaries can be located.
func Available() bool {
	if _, err := exec.LookPath(Path()); err != nil {
		return false
	}
	_, err := exec.LookPath(ProbePath())
	return err == nil
}

var versionRe = regexp.MustCompile(`^ffmpeg version (\S+)`)

// Version returns the engine's self-reported version string.
func Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, Path(), "-version").Output()
	if err != nil {
		return "", fmt.Errorf("query engine version: %w", err)
	}

	line, _, _ := strings.Cut(string(out), "\n")
	if matches := versionRe.FindStringSubmatch(line); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("unrecognized engine version banner: %q", line)
}
