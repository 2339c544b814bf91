// Package tui implements the interactive playback transport view.
package tui

import (
	"fmt"

	"github.com/montage-cli/montage/history"
	configkey "github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/player"
	"github.com/montage-cli/montage/util"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
)

const rateStep = 0.25

func (b *transportBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.progressC.Width = util.Clamp(msg.Width-8, 10, 80)
		b.helpC.Width = msg.Width
		return b, nil

	case statusMsg:
		b.status = player.Status(msg)
		return b, b.waitForStatus()

	case updatesClosedMsg:
		return b, tea.Quit

	case tickMsg:
		b.status = b.player.Status()
		return b, b.tick()

	case tea.KeyMsg:
		return b.handleKey(msg)

	case string, clearNotificationMsg:
		return b, b.notifier.Update(msg)
	}

	return b, nil
}

func (b *transportBubble) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keymap := b.keymap

	switch {
	case key.Matches(msg, keymap.forceQuit), key.Matches(msg, keymap.quit):
		b.player.Stop()
		return b, tea.Quit

	case key.Matches(msg, keymap.playPause):
		pausing := b.status.State == player.Playing
		b.player.TogglePause()

		if pausing && viper.GetBool(configkey.PlaybackSaveOnPause) {
			return b, b.savePosition()
		}
		return b, nil

	case key.Matches(msg, keymap.stop):
		b.player.Stop()
		return b, notify("stopped")

	case key.Matches(msg, keymap.seekBack):
		return b, b.seekBy(-b.seekStep(false))

	case key.Matches(msg, keymap.seekForward):
		return b, b.seekBy(b.seekStep(false))

	case key.Matches(msg, keymap.seekBackLarge):
		return b, b.seekBy(-b.seekStep(true))

	case key.Matches(msg, keymap.seekForwardLarge):
		return b, b.seekBy(b.seekStep(true))

	case key.Matches(msg, keymap.rateDown):
		b.player.SetRate(b.status.Rate - rateStep)
		return b, nil

	case key.Matches(msg, keymap.rateUp):
		b.player.SetRate(b.status.Rate + rateStep)
		return b, nil

	case key.Matches(msg, keymap.volumeDown):
		b.muted = false
		b.player.SetVolume(b.status.Volume - 0.1)
		return b, nil

	case key.Matches(msg, keymap.volumeUp):
		b.muted = false
		b.player.SetVolume(b.status.Volume + 0.1)
		return b, nil

	case key.Matches(msg, keymap.mute):
		return b, b.toggleMute()

	case key.Matches(msg, keymap.percentJump):
		digit := float64(msg.String()[0] - '0')
		b.player.Seek(b.status.Duration * digit / 10)
		return b, nil

	case key.Matches(msg, keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
		return b, nil
	}

	return b, nil
}

// seekStep reads the configured arrow-key step size in seconds.
func (b *transportBubble) seekStep(large bool) float64 {
	k := configkey.TUISeekStep
	fallback := 5.0
	if large {
		k = configkey.TUISeekStepLarge
		fallback = 60.0
	}

	step := viper.GetFloat64(k)
	if step <= 0 {
		step = fallback
	}
	return step
}

func (b *transportBubble) seekBy(delta float64) tea.Cmd {
	target := b.player.Status().Position + delta
	b.player.Seek(target)
	return notify(fmt.Sprintf("seek to %s", util.FormatTime(util.Clamp(target, 0, b.status.Duration))))
}

func (b *transportBubble) toggleMute() tea.Cmd {
	if b.muted {
		b.muted = false
		b.player.SetVolume(b.lastVolume)
		return notify("unmuted")
	}

	b.muted = true
	b.lastVolume = util.Max(b.status.Volume, 0.1)
	b.player.SetVolume(0)
	return notify("muted")
}

// savePosition records the resume point of the playing file.
func (b *transportBubble) savePosition() tea.Cmd {
	info := b.player.Info()
	status := b.player.Status()

	if err := history.Save(info.Path, status.Position, status.Duration); err != nil {
		log.Warnf("saving resume position failed: %v", err)
		return notify("saving position failed")
	}

	return notify(fmt.Sprintf("position %s saved", util.FormatTime(status.Position)))
}
