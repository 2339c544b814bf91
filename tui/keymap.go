// Package tui implements the interactive playback transport view.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// transportKeymap defines the keyboard interactions of the transport view.
type transportKeymap struct {
	playPause, stop,
	seekBack, seekForward,
	seekBackLarge, seekForwardLarge,
	rateDown, rateUp,
	volumeDown, volumeUp, mute,
	percentJump,
	showHelp, quit, forceQuit key.Binding
}

func newTransportKeymap() *transportKeymap {
	return &transportKeymap{
		playPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		seekBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "seek back"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "seek forward"),
		),
		seekBackLarge: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("shift+←", "big seek back"),
		),
		seekForwardLarge: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("shift+→", "big seek forward"),
		),
		rateDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "slower"),
		),
		rateUp: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "faster"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "volume down"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "volume up"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		percentJump: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump to percent"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k *transportKeymap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.seekBack, k.seekForward, k.rateUp, k.mute, k.showHelp, k.quit}
}

// FullHelp implements help.KeyMap.
func (k *transportKeymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.stop, k.quit},
		{k.seekBack, k.seekForward, k.seekBackLarge, k.seekForwardLarge, k.percentJump},
		{k.rateDown, k.rateUp, k.volumeDown, k.volumeUp, k.mute},
	}
}
