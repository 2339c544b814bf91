// Package tui implements the interactive playback transport view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/montage-cli/montage/player"
)

// Options encapsulates the runtime configuration for the transport view.
type Options struct {
	// Name labels the clip in the view header.
	Name string
}

// Run drives the transport view over an already started player until the
// user quits or playback fails. Frame pixels are never rendered here; the
// view reads clock snapshots only.
func Run(p *player.Player, options *Options) error {
	bubble := newBubble(p, options)

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
