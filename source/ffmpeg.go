package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"

	"github.com/montage-cli/montage/audio"
	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
)

const (
	// rawPixelFormat is the layout video frames are decoded to. Four bytes
	// per pixel keeps the frame size arithmetic trivial downstream.
	rawPixelFormat = "rgba"

	// audioChunkSamples is how many samples per channel a single audio
	// frame carries. At 48 kHz one chunk spans about 21 ms.
	audioChunkSamples = 1024

	// fallbackFrameRate stands in when the container reports no usable
	// video frame rate.
	fallbackFrameRate = 30.0

	videoReadBuffer = 1 << 20
	audioReadBuffer = 1 << 16
)

var (
	errClosed       = errors.New("source is closed")
	errNotStarted   = errors.New("source is not started")
	errNoDimensions = errors.New("video stream reports no dimensions")
)

// FFmpeg decodes a media file through external engine processes, one per
// track. Each track is remuxed to a raw byte stream on stdout and sliced
// into frames with synthesized timestamps, so the rest of the player never
// deals with container timing quirks.
type FFmpeg struct {
	info media.Info

	video *pump[media.VideoFrame]
	audio *pump[media.AudioFrame]

	started bool
	closed  bool
}

// Open probes path and prepares a source for it.
// Decoding does not begin until Start.
func Open(ctx context.Context, path string) (*FFmpeg, error) {
	info, err := ffmpeg.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	return New(info), nil
}

// New wraps already probed stream metadata in a source.
func New(info media.Info) *FFmpeg {
	return &FFmpeg{info: info}
}

func (f *FFmpeg) Info() media.Info {
	return f.info
}

// Start launches the decode processes positioned at the given media time.
// Calling Start on a running source restarts it.
func (f *FFmpeg) Start(ctx context.Context, at float64) error {
	if f.closed {
		return errClosed
	}

	f.stopPumps()

	at = clampPosition(at, f.info.Duration)
	if err := f.startPumps(ctx, at); err != nil {
		f.stopPumps()
		return err
	}

	f.started = true
	return nil
}

// NextVideo blocks until the next video frame is decoded. It returns
// media.ErrEndOfStream once the track is exhausted.
func (f *FFmpeg) NextVideo(ctx context.Context) (media.VideoFrame, error) {
	if f.closed {
		return media.VideoFrame{}, errClosed
	}

	if !f.started {
		return media.VideoFrame{}, errNotStarted
	}

	if f.video == nil {
		return media.VideoFrame{}, media.ErrEndOfStream
	}

	select {
	case frame, ok := <-f.video.frames:
		if !ok {
			return media.VideoFrame{}, f.video.err
		}

		return frame, nil
	case <-ctx.Done():
		return media.VideoFrame{}, ctx.Err()
	}
}

// NextAudio blocks until the next audio frame is decoded. It returns
// media.ErrEndOfStream once the track is exhausted.
func (f *FFmpeg) NextAudio(ctx context.Context) (media.AudioFrame, error) {
	if f.closed {
		return media.AudioFrame{}, errClosed
	}

	if !f.started {
		return media.AudioFrame{}, errNotStarted
	}

	if f.audio == nil {
		return media.AudioFrame{}, media.ErrEndOfStream
	}

	select {
	case frame, ok := <-f.audio.frames:
		if !ok {
			return media.AudioFrame{}, f.audio.err
		}

		return frame, nil
	case <-ctx.Done():
		return media.AudioFrame{}, ctx.Err()
	}
}

// Seek tears the decode processes down and restarts them at the clamped
// target. After it returns, no track produces a frame with a timestamp
// below the returned position.
func (f *FFmpeg) Seek(ctx context.Context, target float64) (float64, error) {
	if f.closed {
		return 0, errClosed
	}

	if !f.started {
		return 0, errNotStarted
	}

	target = clampPosition(target, f.info.Duration)

	f.stopPumps()
	if err := f.startPumps(ctx, target); err != nil {
		f.stopPumps()
		return 0, err
	}

	return target, nil
}

// Close stops the decode processes. The source cannot be restarted.
func (f *FFmpeg) Close() error {
	if f.closed {
		return nil
	}

	f.stopPumps()
	f.closed = true

	log.Debugf("closed source for %s", f.info.Path)
	return nil
}

func (f *FFmpeg) startPumps(ctx context.Context, at float64) error {
	if f.info.HasVideo {
		video, err := f.spawnVideo(ctx, at)
		if err != nil {
			return err
		}

		f.video = video
	}

	if f.info.HasAudio {
		audio, err := f.spawnAudio(ctx, at)
		if err != nil {
			return err
		}

		f.audio = audio
	}

	return nil
}

func (f *FFmpeg) stopPumps() {
	if f.video != nil {
		f.video.halt()
		f.video = nil
	}

	if f.audio != nil {
		f.audio.halt()
		f.audio = nil
	}
}

func (f *FFmpeg) spawnVideo(ctx context.Context, at float64) (*pump[media.VideoFrame], error) {
	frameSize := f.info.Width * f.info.Height * 4
	if frameSize <= 0 {
		return nil, media.NewDecodeError(media.DecodeUnsupported, f.info.Path, errNoDimensions)
	}

	step := f.info.FrameDuration()
	if step <= 0 {
		step = 1.0 / fallbackFrameRate
	}

	cmd := exec.CommandContext(ctx, ffmpeg.Path(), videoArgs(f.info, at)...)
	cmd.SysProcAttr = sysProcAttr()

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, media.NewDecodeError(media.DecodeIO, f.info.Path, err)
	}

	p := newPump[media.VideoFrame](cmd, out, videoPumpDepth)

	reader := bufio.NewReaderSize(out, videoReadBuffer)
	frame := 0
	read := func() (media.VideoFrame, error) {
		data := make([]byte, frameSize)
		if _, err := io.ReadFull(reader, data); err != nil {
			return media.VideoFrame{}, err
		}

		pts := at + float64(frame)*step
		frame++

		return media.VideoFrame{
			PTS:         pts,
			Data:        data,
			Width:       f.info.Width,
			Height:      f.info.Height,
			PixelFormat: rawPixelFormat,
		}, nil
	}

	if err := p.start(f.info.Path, read); err != nil {
		return nil, err
	}

	log.Debugf("video decode of %s running from %.3f", f.info.Path, at)
	return p, nil
}

func (f *FFmpeg) spawnAudio(ctx context.Context, at float64) (*pump[media.AudioFrame], error) {
	format := audio.OutputFormat(f.info)
	rate := format.SampleRate
	channels := format.Channels
	sampleBytes := format.SampleBytes()

	cmd := exec.CommandContext(ctx, ffmpeg.Path(), audioArgs(f.info, at, rate, channels)...)
	cmd.SysProcAttr = sysProcAttr()

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, media.NewDecodeError(media.DecodeIO, f.info.Path, err)
	}

	p := newPump[media.AudioFrame](cmd, out, audioPumpDepth)

	reader := bufio.NewReaderSize(out, audioReadBuffer)
	consumed := 0
	read := func() (media.AudioFrame, error) {
		data := make([]byte, audioChunkSamples*sampleBytes)
		n, err := io.ReadFull(reader, data)
		if err == io.ErrUnexpectedEOF {
			// The stream rarely ends on a chunk boundary. Salvage the
			// whole samples of the trailing short read.
			data = data[:n-n%sampleBytes]
			if len(data) == 0 {
				return media.AudioFrame{}, io.EOF
			}

			err = nil
		}
		if err != nil {
			return media.AudioFrame{}, err
		}

		pts := at + float64(consumed)/float64(rate)
		consumed += len(data) / sampleBytes

		return media.AudioFrame{
			PTS:        pts,
			Data:       data,
			SampleRate: rate,
			Channels:   channels,
		}, nil
	}

	if err := p.start(f.info.Path, read); err != nil {
		return nil, err
	}

	log.Debugf("audio decode of %s running from %.3f at %d Hz", f.info.Path, at, rate)
	return p, nil
}

// videoArgs builds the engine invocation that decodes the first video
// stream to raw frames on stdout. A known frame rate is forced back onto
// the output so variable rate material decodes to a constant step.
func videoArgs(info media.Info, at float64) []string {
	args := engineArgs(info.Path, at)
	args = append(args, "-map", "0:v:0", "-f", "rawvideo", "-pix_fmt", rawPixelFormat)

	if info.FrameRateNum > 0 && info.FrameRateDen > 0 {
		args = append(args, "-r", fmt.Sprintf("%d/%d", info.FrameRateNum, info.FrameRateDen))
	}

	return append(args, "-")
}

// audioArgs builds the engine invocation that decodes the first audio
// stream to interleaved signed 16 bit samples on stdout.
func audioArgs(info media.Info, at float64, rate, channels int) []string {
	args := engineArgs(info.Path, at)
	args = append(args,
		"-map", "0:a:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", strconv.Itoa(channels),
	)

	return append(args, "-")
}

// engineArgs builds the shared prefix of a decode invocation. The seek
// offset goes before the input, which makes the engine jump by index and
// then discard frames up to the exact point.
func engineArgs(path string, at float64) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if at > 0 {
		args = append(args, "-ss", strconv.FormatFloat(at, 'f', 6, 64))
	}

	return append(args, "-i", path)
}

// clampPosition bounds a requested media time to the file. An unknown
// duration only guards the lower bound.
func clampPosition(target, duration float64) float64 {
	high := duration
	if high <= 0 {
		high = math.Inf(1)
	}

	clamped := util.Clamp(target, 0, high)
	if clamped != target {
		log.Debugf("%v: %.3f adjusted to %.3f", media.ErrSeekOutOfRange, target, clamped)
	}

	return clamped
}

