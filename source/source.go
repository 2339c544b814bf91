// Package source defines the decoder abstraction that turns media files into
// streams of timestamped frames, and its engine-backed implementation.
//
// A Source produces frames in non-decreasing presentation order per stream
// type; audio and video timelines are independent and merging them is the
// caller's concern. Next calls and Seek must come from a single consumer
// goroutine; the decode processes behind them run on their own.
package source

import (
	"context"

	"github.com/montage-cli/montage/media"
)

// Source is a producer of timestamped audio and video frames from an opened
// media file, supporting random access by media time.
type Source interface {
	// Info returns the probed properties the source was opened with.
	Info() media.Info

	// Start positions the decoder at the given media time and begins
	// producing frames. Targets outside [0, duration] are clamped.
	Start(ctx context.Context, at float64) error

	// NextVideo returns the next decoded video frame in presentation order.
	// media.ErrEndOfStream signals clean exhaustion of the video track.
	NextVideo(ctx context.Context) (media.VideoFrame, error)

	// NextAudio returns the next decoded audio chunk in presentation order.
	// media.ErrEndOfStream signals clean exhaustion of the audio track.
	NextAudio(ctx context.Context) (media.AudioFrame, error)

	// Seek repositions the decoder to target, discarding everything buffered
	// for the previous position. Targets outside [0, duration] are clamped;
	// the position actually seeked to is returned. No frame with a timestamp
	// below the returned position is produced afterwards.
	Seek(ctx context.Context, target float64) (float64, error)

	// Close terminates decoding and releases all engine processes.
	Close() error
}
