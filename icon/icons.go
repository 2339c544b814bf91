package icon

// Icon identifies a registered UI symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Stop
	Seek
	Volume
	Mute
	Clip
	Waveform
	Export
	Clock
)

// icons is the global registry mapping identifiers to their per-variant renderings.
var icons = map[Icon]*iconDef{
	Success:  {emoji: "✅", nerd: "", plain: "+", kaomoji: "(ᵔ◡ᵔ)", squares: "🟩"},
	Fail:     {emoji: "❌", nerd: "", plain: "x", kaomoji: "(╥﹏╥)", squares: "🟥"},
	Progress: {emoji: "⏳", nerd: "", plain: "*", kaomoji: "(・・;)", squares: "🟨"},
	Play:     {emoji: "▶️", nerd: "", plain: ">", kaomoji: "(˘▽˘)♪", squares: "🟢"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||", kaomoji: "(-_-)", squares: "🟡"},
	Stop:     {emoji: "⏹️", nerd: "", plain: "#", kaomoji: "(x_x)", squares: "🔴"},
	Seek:     {emoji: "⏩", nerd: "", plain: ">>", kaomoji: "(o_O)", squares: "🟦"},
	Volume:   {emoji: "🔊", nerd: "", plain: "v", kaomoji: "(^^)/", squares: "🔈"},
	Mute:     {emoji: "🔇", nerd: "", plain: "-", kaomoji: "(shh)", squares: "🔇"},
	Clip:     {emoji: "🎬", nerd: "", plain: "=", kaomoji: "(o^^)o", squares: "🟪"},
	Waveform: {emoji: "📈", nerd: "", plain: "~", kaomoji: "~(˘▾˘)~", squares: "🟧"},
	Export:   {emoji: "📦", nerd: "", plain: "^", kaomoji: "(ノ´ヮ´)ノ", squares: "🟫"},
	Clock:    {emoji: "🕒", nerd: "", plain: "@", kaomoji: "(・o・)", squares: "⬜"},
}
