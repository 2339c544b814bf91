// Package tui implements the interactive playback transport view.
package tui

import (
	"time"

	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/player"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
)

// transportBubble holds the transport view state. It never owns playback
// state of its own: every mutation goes through the controller's command
// surface and every read comes from Status snapshots.
type transportBubble struct {
	player  *player.Player
	options *Options

	keymap *transportKeymap

	progressC progress.Model
	helpC     help.Model
	notifier  *notifier

	status  player.Status
	updates <-chan player.Status

	muted      bool
	lastVolume float64

	width, height int
}

// statusMsg carries a controller snapshot into the update loop.
type statusMsg player.Status

// updatesClosedMsg signals that the controller shut down.
type updatesClosedMsg struct{}

// tickMsg drives the periodic position refresh between snapshots.
type tickMsg time.Time

func newBubble(p *player.Player, options *Options) *transportBubble {
	return &transportBubble{
		player:     p,
		options:    options,
		keymap:     newTransportKeymap(),
		progressC:  progress.New(progress.WithDefaultGradient()),
		helpC:      help.New(),
		notifier:   &notifier{},
		status:     p.Status(),
		updates:    p.Subscribe(),
		lastVolume: 1,
	}
}

// Init starts the snapshot pump and the refresh ticker.
func (b *transportBubble) Init() tea.Cmd {
	return tea.Batch(b.waitForStatus(), b.tick())
}

// waitForStatus blocks on the controller's subscription channel.
func (b *transportBubble) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		status, ok := <-b.updates
		if !ok {
			return updatesClosedMsg{}
		}
		return statusMsg(status)
	}
}

// tick schedules the next display refresh from configuration.
func (b *transportBubble) tick() tea.Cmd {
	rate := viper.GetInt(key.TUIRefreshRate)
	if rate <= 0 {
		rate = 10
	}

	return tea.Tick(time.Second/time.Duration(rate), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
