// Package media defines the domain model shared by the decoding, playback, and analysis subsystems.
package media

// Bucket is one downsampled amplitude span of a waveform envelope, holding the
// extreme sample values observed across its fixed time slice, normalized to [-1, 1].
type Bucket struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// WaveformEnvelope is the reduced amplitude profile of an audio track, one
// bucket per equal-duration slice. Envelopes are immutable once computed and
// deterministic for a given (file, bucket count) pair, which makes them safe
// to cache keyed by source file.
type WaveformEnvelope struct {
	// Path of the source media file the envelope was reduced from.
	Path string `json:"path"`
	// Duration of the analyzed track in seconds.
	Duration float64 `json:"duration"`
	// SampleRate of the mono reduction pass, not of the source audio.
	SampleRate int `json:"sample_rate"`

	Buckets []Bucket `json:"buckets"`
}

// BucketCount returns the number of amplitude buckets in the envelope.
func (e WaveformEnvelope) BucketCount() int {
	return len(e.Buckets)
}

// BucketDuration returns the time span in seconds covered by a single bucket.
func (e WaveformEnvelope) BucketDuration() float64 {
	if len(e.Buckets) == 0 {
		return 0
	}
	return e.Duration / float64(len(e.Buckets))
}

// Peak returns the largest absolute amplitude in the envelope.
func (e WaveformEnvelope) Peak() float32 {
	var peak float32
	for _, b := range e.Buckets {
		if b.Max > peak {
			peak = b.Max
		}
		if -b.Min > peak {
			peak = -b.Min
		}
	}
	return peak
}
