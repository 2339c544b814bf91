// Package media defines the domain model shared by the decoding, playback, and analysis subsystems.
//
// Types in this package are immutable value carriers. Ownership of a decoded
// frame transfers to whichever consumer dequeues it; nothing here is safe to
// mutate after construction.
package media

// Info describes the probed properties of a media file.
// It is produced once on open and treated as trusted input for buffer sizing
// and clock initialization.
type Info struct {
	// Absolute path of the probed file.
	Path string `json:"path"`
	// Container format name (e.g. "mov,mp4,m4a,3gp,3g2,mj2").
	Container string `json:"container"`
	// Total duration in seconds.
	Duration float64 `json:"duration"`

	HasVideo bool `json:"has_video"`
	HasAudio bool `json:"has_audio"`

	// Video stream properties, zero-valued when HasVideo is false.
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	FrameRateNum int     `json:"frame_rate_num,omitempty"`
	FrameRateDen int     `json:"frame_rate_den,omitempty"`
	VideoCodec   string  `json:"video_codec,omitempty"`
	PixelFormat  string  `json:"pixel_format,omitempty"`

	// Audio stream properties, zero-valued when HasAudio is false.
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	AudioCodec string `json:"audio_codec,omitempty"`

	// Overall bit rate in bits per second when the container reports one.
	BitRate int64 `json:"bit_rate,omitempty"`
}

// FrameDuration returns the nominal display time of one video frame in seconds.
func (i Info) FrameDuration() float64 {
	if i.FrameRate <= 0 {
		return 0
	}
	return 1 / i.FrameRate
}
