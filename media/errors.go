// Package media defines the domain model shared by the decoding, playback, and analysis subsystems.
package media

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEndOfStream signals clean exhaustion of a decoded stream.
// It is a flow condition, not a failure; callers must not log it as an error.
var ErrEndOfStream = errors.New("end of stream")

// ErrSeekOutOfRange reports a seek target outside the media duration.
// Seeks are clamped to the valid range rather than failed; the sentinel exists
// so the clamp can be surfaced in logs and status lines.
var ErrSeekOutOfRange = errors.New("seek target out of range")

// DecodeKind classifies decoder source failures.
type DecodeKind uint8

const (
	// DecodeUnsupported marks streams the engine cannot interpret at all.
	DecodeUnsupported DecodeKind = iota
	// DecodeIO marks failures reading the file or talking to the engine process.
	DecodeIO
	// DecodeCorrupt marks streams that opened fine but died mid-file.
	DecodeCorrupt
)

// String returns the lowercase classification name.
func (k DecodeKind) String() string {
	switch k {
	case DecodeUnsupported:
		return "unsupported"
	case DecodeIO:
		return "io"
	case DecodeCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// DecodeError reports a decoder source failure for a specific file.
// A DecodeError on open is fatal to that playback session; corrupt and
// unsupported files are not transient, so no retry is attempted.
type DecodeError struct {
	Kind DecodeKind
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("decode %s: %s: %s", e.Kind, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError wraps err with a decode classification for path.
func NewDecodeError(kind DecodeKind, path string, err error) *DecodeError {
	return &DecodeError{Kind: kind, Path: path, Err: err}
}

// IsDecodeKind reports whether err is a DecodeError of the given kind.
func IsDecodeKind(err error, kind DecodeKind) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.Kind == kind
}

// DeviceKind classifies audio output device failures.
type DeviceKind uint8

const (
	// DeviceUnavailable marks a device that could not be opened at all.
	DeviceUnavailable DeviceKind = iota
	// DeviceUnderrun marks a running device whose sample queue ran dry.
	DeviceUnderrun
)

// String returns the lowercase classification name.
func (k DeviceKind) String() string {
	switch k {
	case DeviceUnavailable:
		return "unavailable"
	case DeviceUnderrun:
		return "underrun"
	default:
		return "unknown"
	}
}

// DeviceError reports an audio output failure.
// Underruns are recovered locally by re-anchoring the clock and are never
// fatal; unavailability downgrades the sync reference to wall time.
type DeviceError struct {
	Kind DeviceKind
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio device %s", e.Kind)
	}
	return fmt.Sprintf("audio device %s: %s", e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError wraps err with a device classification.
func NewDeviceError(kind DeviceKind, err error) *DeviceError {
	return &DeviceError{Kind: kind, Err: err}
}

// IsDeviceKind reports whether err is a DeviceError of the given kind.
func IsDeviceKind(err error, kind DeviceKind) bool {
	var de *DeviceError
	return errors.As(err, &de) && de.Kind == kind
}

// ExportFailed reports a nonzero engine exit during an export job, carrying
// the final lines of engine output as the diagnostic. It is surfaced verbatim
// to the caller; engine failures are deterministic for fixed arguments, so no
// automatic retry is performed.
type ExportFailed struct {
	ExitCode int
	Tail     []string
}

func (e *ExportFailed) Error() string {
	if len(e.Tail) == 0 {
		return fmt.Sprintf("export failed with exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("export failed with exit code %d:\n%s", e.ExitCode, strings.Join(e.Tail, "\n"))
}
