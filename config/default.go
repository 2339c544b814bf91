// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/montage-cli/montage/color"
	"github.com/montage-cli/montage/constant"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Montage + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case float64:
		return "float"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.EnginePath, "ffmpeg", "Path to the ffmpeg binary.\nResolved against PATH when not absolute")
	register(key.EngineProbePath, "ffprobe", "Path to the ffprobe binary.\nResolved against PATH when not absolute")
	register(key.PlaybackDropWindow, 0.05, "Seconds a due video frame may lag the audio clock before it is dropped instead of presented")
	register(key.PlaybackHoldWindow, 0.01, "Seconds a video frame may lead the audio clock before presentation is held back")
	register(key.PlaybackVideoBuffer, 30, "Capacity of the decoded video frame buffer, in frames")
	register(key.PlaybackAudioQueue, 32, "Capacity of the decoded audio chunk queue, in chunks")
	register(key.PlaybackLowWatermark, 6, "Buffered video frames required before playback resumes after a seek")
	register(key.PlaybackVolume, 100, "Initial playback volume. From 0 to 100")
	register(key.PlaybackSampleRate, 48000, "Sample rate the decoded audio stream is resampled to for output")
	register(key.PlaybackSaveOnPause, true, "Save the resume position when playback is paused")
	register(key.CompletionPercentage, 95, "Percentage of the duration after which a file counts as fully watched\nand its resume position is cleared (1-100)")
	register(key.HistorySaveOnStop, true, "Save the resume position when playback stops")
	register(key.WaveformBuckets, 200, "Number of amplitude buckets in an extracted waveform envelope")
	register(key.WaveformSampleRate, 1000, "Sample rate of the mono reduction pass used for waveform extraction.\nHigher values cost time, not accuracy at timeline zoom levels")
	register(key.WaveformCacheTTL, 168, "Hours an extracted waveform envelope stays valid in the disk cache")
	register(key.SilenceThreshold, -30, "Noise floor in dB below which audio counts as silence")
	register(key.SilenceMinDuration, 0.5, "Minimum length of a quiet stretch, in seconds, to report as silence")
	register(key.SilenceCutMargin, 0.02, "Fraction of each silence range kept as margin when deriving cut points")
	register(key.ExportTailLines, 20, "Number of final engine output lines captured as the diagnostic tail of a failed export")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.TUISeekStep, 5, "Seconds to seek with the arrow keys in the transport view")
	register(key.TUISeekStepLarge, 60, "Seconds to seek with shifted arrow keys in the transport view")
	register(key.TUIRefreshRate, 10, "Transport view refresh rate in updates per second")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
