package source

import (
	"context"
	"math"
	"sort"

	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
)

// Synthetic replays a scripted frame sequence without any engine process.
// It honors the same contract as the engine backed source, including the
// discard of frames below a seek target, so playback logic can be
// rehearsed deterministically.
type Synthetic struct {
	info   media.Info
	script []media.Frame

	videoAt int
	audioAt int

	started bool
	closed  bool
}

// NewSynthetic builds a source over the given script. Frames of each kind
// must appear in ascending timestamp order.
func NewSynthetic(info media.Info, script []media.Frame) *Synthetic {
	return &Synthetic{
		info:   info,
		script: script,
	}
}

func (s *Synthetic) Info() media.Info {
	return s.info
}

func (s *Synthetic) Start(ctx context.Context, at float64) error {
	if s.closed {
		return errClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.position(clampPosition(at, s.info.Duration))
	s.started = true
	return nil
}

func (s *Synthetic) NextVideo(ctx context.Context) (media.VideoFrame, error) {
	if err := s.gate(ctx); err != nil {
		return media.VideoFrame{}, err
	}

	for s.videoAt < len(s.script) {
		frame := s.script[s.videoAt]
		s.videoAt++

		if frame.Kind() == media.KindVideo {
			return frame.(media.VideoFrame), nil
		}
	}

	return media.VideoFrame{}, media.ErrEndOfStream
}

func (s *Synthetic) NextAudio(ctx context.Context) (media.AudioFrame, error) {
	if err := s.gate(ctx); err != nil {
		return media.AudioFrame{}, err
	}

	for s.audioAt < len(s.script) {
		frame := s.script[s.audioAt]
		s.audioAt++

		if frame.Kind() == media.KindAudio {
			return frame.(media.AudioFrame), nil
		}
	}

	return media.AudioFrame{}, media.ErrEndOfStream
}

func (s *Synthetic) Seek(ctx context.Context, target float64) (float64, error) {
	if err := s.gate(ctx); err != nil {
		return 0, err
	}

	target = clampPosition(target, s.info.Duration)
	s.position(target)
	return target, nil
}

func (s *Synthetic) Close() error {
	s.closed = true
	return nil
}

func (s *Synthetic) gate(ctx context.Context) error {
	if s.closed {
		return errClosed
	}

	if !s.started {
		return errNotStarted
	}

	return ctx.Err()
}

func (s *Synthetic) position(at float64) {
	s.videoAt = s.index(media.KindVideo, at)
	s.audioAt = s.index(media.KindAudio, at)
}

// index finds the first script entry of the kind at or after the target.
func (s *Synthetic) index(kind media.FrameKind, at float64) int {
	for i, frame := range s.script {
		if frame.Kind() == kind && frame.Timestamp() >= at {
			return i
		}
	}

	return len(s.script)
}

// Timeline scripts a complete clip of the given duration with video at
// fps and silent audio at the given rate, interleaved by timestamp. Video
// frames carry no pixel data.
func Timeline(duration, fps float64, rate, channels int) []media.Frame {
	var script []media.Frame

	frames := int(math.Round(duration * fps))
	step := 1.0 / fps
	for n := 0; n < frames; n++ {
		script = append(script, media.VideoFrame{
			PTS:         float64(n) * step,
			PixelFormat: rawPixelFormat,
		})
	}

	total := int(math.Round(duration * float64(rate)))
	for consumed := 0; consumed < total; {
		samples := util.Min(audioChunkSamples, total-consumed)

		script = append(script, media.AudioFrame{
			PTS:        float64(consumed) / float64(rate),
			Data:       make([]byte, samples*channels*2),
			SampleRate: rate,
			Channels:   channels,
		})

		consumed += samples
	}

	sort.SliceStable(script, func(i, j int) bool {
		return script[i].Timestamp() < script[j].Timestamp()
	})

	return script
}
