// Package media defines the domain model shared by the decoding, playback, and analysis subsystems.
package media

// FrameKind discriminates the variants of the Frame sum type.
type FrameKind uint8

const (
	KindVideo FrameKind = iota
	KindAudio
)

// String returns the lowercase variant name.
func (k FrameKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Frame is the tagged variant over decoded audio and video payloads.
// Consumers dispatch on Kind; there is no shared behavior beyond the
// presentation timestamp.
type Frame interface {
	Kind() FrameKind
	// Timestamp returns the presentation timestamp in seconds of media time.
	Timestamp() float64
}

// VideoFrame is one decoded picture with its presentation timestamp.
type VideoFrame struct {
	// PTS is the presentation timestamp in seconds.
	PTS float64
	// Data holds the raw pixel buffer in the declared pixel format.
	Data []byte

	Width       int
	Height      int
	PixelFormat string
}

func (f VideoFrame) Kind() FrameKind    { return KindVideo }
func (f VideoFrame) Timestamp() float64 { return f.PTS }

// AudioFrame is a chunk of interleaved signed 16-bit little-endian samples.
type AudioFrame struct {
	// PTS is the presentation timestamp in seconds of the first sample.
	PTS float64
	// Data holds interleaved s16le samples across all channels.
	Data []byte

	SampleRate int
	Channels   int
}

func (f AudioFrame) Kind() FrameKind    { return KindAudio }
func (f AudioFrame) Timestamp() float64 { return f.PTS }

// Samples returns the per-channel sample count carried by the chunk.
func (f AudioFrame) Samples() int {
	if f.Channels == 0 {
		return 0
	}
	return len(f.Data) / (2 * f.Channels)
}

// Duration returns the rendered length of the chunk in seconds.
func (f AudioFrame) Duration() float64 {
	if f.SampleRate == 0 {
		return 0
	}
	return float64(f.Samples()) / float64(f.SampleRate)
}

// End returns the presentation timestamp one past the last sample of the chunk.
func (f AudioFrame) End() float64 {
	return f.PTS + f.Duration()
}
