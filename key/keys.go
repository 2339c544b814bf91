// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 27

// External Engine Integration - these keys locate and configure the ffmpeg/ffprobe binaries.
const (
	EnginePath      = "engine.ffmpeg_path"
	EngineProbePath = "engine.ffprobe_path"
)

// Playback Synchronization - these keys tune the drift policy and buffer sizing of the sync controller.
const (
	PlaybackDropWindow   = "playback.drop_window"
	PlaybackHoldWindow   = "playback.hold_window"
	PlaybackVideoBuffer  = "playback.video_buffer"
	PlaybackAudioQueue   = "playback.audio_queue"
	PlaybackLowWatermark = "playback.low_watermark"
	PlaybackVolume       = "playback.volume"
	PlaybackSampleRate   = "playback.audio_sample_rate"
	PlaybackSaveOnPause  = "playback.save_position_on_pause"
	CompletionPercentage = "playback.completion_percentage"
)

// History Tracking - these keys configure the persistence of resume positions.
const (
	HistorySaveOnStop = "history.save_on_stop"
)

// Waveform Extraction - these keys govern the amplitude envelope reduction pass.
const (
	WaveformBuckets    = "waveform.buckets"
	WaveformSampleRate = "waveform.sample_rate"
	WaveformCacheTTL   = "waveform.cache_ttl_hours"
)

// Silence Detection - these keys parameterize the silencedetect analysis pass.
const (
	SilenceThreshold   = "silence.threshold_db"
	SilenceMinDuration = "silence.min_duration"
	SilenceCutMargin   = "silence.cut_margin"
)

// Export Monitoring - these keys shape the capture of engine progress and diagnostics.
const (
	ExportTailLines = "export.tail_lines"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Terminal User Interface (TUI) - these keys define the transport view's styling and behavior.
const (
	TUISeekStep      = "tui.seek_step"
	TUISeekStepLarge = "tui.seek_step_large"
	TUIRefreshRate   = "tui.refresh_rate"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)
