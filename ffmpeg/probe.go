// Package ffmpeg integrates the external decoding and transcoding engine.
package ffmpeg

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/media"
)

// probeOutput mirrors the JSON document emitted by ffprobe.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	PixFmt       string `json:"pix_fmt,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	SampleRate   string `json:"sample_rate,omitempty"`
	Channels     int    `json:"channels,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

type probeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// Probe inspects a media file with ffprobe and returns its stream properties.
// Results are trusted input for buffer sizing and clock initialization, and
// are cached keyed by the file's identity (path, size, modification time).
func Probe(ctx context.Context, path string) (media.Info, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return media.Info{}, media.NewDecodeError(media.DecodeIO, path, err)
	}

	stat, err := filesystem.API().Stat(abs)
	if err != nil {
		return media.Info{}, media.NewDecodeError(media.DecodeIO, abs, err)
	}

	cacheKey := statKey(abs, stat.Size(), stat.ModTime().UnixNano())
	if cached := probeCacher.Get(cacheKey); cached.IsPresent() {
		return cached.MustGet(), nil
	}

	out, err := exec.CommandContext(
		ctx, ProbePath(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		abs,
	).Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// The probe ran but rejected the file.
			return media.Info{}, media.NewDecodeError(media.DecodeUnsupported, abs, err)
		}
		return media.Info{}, media.NewDecodeError(media.DecodeIO, abs, err)
	}

	info, err := parseProbe(abs, out)
	if err != nil {
		return media.Info{}, err
	}

	_ = probeCacher.Set(cacheKey, info)
	return info, nil
}

// parseProbe converts a raw ffprobe JSON document into the domain model.
func parseProbe(path string, raw []byte) (media.Info, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return media.Info{}, media.NewDecodeError(media.DecodeUnsupported, path, err)
	}

	info := media.Info{
		Path:      path,
		Container: out.Format.FormatName,
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	if b, err := strconv.ParseInt(out.Format.BitRate, 10, 64); err == nil {
		info.BitRate = b
	}

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.HasVideo || stream.Width == 0 {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.PixelFormat = stream.PixFmt

			// Prefer the averaged rate; attached pictures report "0/0" there.
			rate := stream.AvgFrameRate
			if num, _, ok := parseRational(rate); !ok || num == 0 {
				rate = stream.RFrameRate
			}
			if num, den, ok := parseRational(rate); ok && num > 0 {
				info.FrameRateNum = num
				info.FrameRateDen = den
				info.FrameRate = float64(num) / float64(den)
			}

			// Fall back on the stream's own duration when the container omits one.
			if info.Duration == 0 {
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = d
				}
			}
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			info.Channels = stream.Channels
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = sr
			}
			if info.Duration == 0 {
				if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
					info.Duration = d
				}
			}
		}
	}

	if !info.HasVideo && !info.HasAudio {
		return media.Info{}, media.NewDecodeError(media.DecodeUnsupported, path, errNoStreams)
	}

	return info, nil
}

// parseRational parses a "num/den" frame rate expression.
func parseRational(s string) (num, den int, ok bool) {
	slash := -1
	for i, r := range s {
		if r == '/' {
			slash = i
			break
		}
	}
	if slash < 0 {
		return 0, 0, false
	}

	num, errNum := strconv.Atoi(s[:slash])
	den, errDen := strconv.Atoi(s[slash+1:])
	if errNum != nil || errDen != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}
