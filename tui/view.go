// Package tui implements the interactive playback transport view.
package tui

import (
	"fmt"
	"strings"

	"github.com/montage-cli/montage/color"
	"github.com/montage-cli/montage/icon"
	"github.com/montage-cli/montage/player"
	"github.com/montage-cli/montage/style"
	"github.com/montage-cli/montage/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *transportBubble) View() string {
	var output string

	if b.status.Err != nil {
		output = b.viewError()
	} else {
		output = b.viewTransport()
	}

	return b.notifier.View(output)
}

func (b *transportBubble) viewTransport() string {
	status := b.status

	lines := []string{
		style.Title(b.options.Name),
		"",
		fmt.Sprintf(
			"%s  %s / %s",
			b.stateIcon(),
			style.Bold(util.FormatTime(status.Position)),
			style.Faint(util.FormatTime(status.Duration)),
		),
		"",
		b.progressC.ViewAs(status.Percent() / 100),
		"",
		b.viewStats(),
	}

	return b.renderLines(true, lines)
}

func (b *transportBubble) stateIcon() string {
	switch b.status.State {
	case player.Playing:
		return icon.Get(icon.Play)
	case player.Paused:
		return icon.Get(icon.Pause)
	case player.Seeking:
		return icon.Get(icon.Seek)
	default:
		return icon.Get(icon.Stop)
	}
}

// viewStats renders the counters the sync controller exposes: rate, volume,
// buffer fill, and the drop and underrun tallies of the drift policy.
func (b *transportBubble) viewStats() string {
	status := b.status

	volume := fmt.Sprintf("%s %3.0f%%", icon.Get(icon.Volume), status.Volume*100)
	if b.muted || status.Volume == 0 {
		volume = icon.Get(icon.Mute) + " muted"
	}
	if status.Silent {
		volume = icon.Get(icon.Mute) + " no audio device"
	}

	parts := []string{
		fmt.Sprintf("%.2fx", status.Rate),
		volume,
		fmt.Sprintf("buffered %d+%d", status.Buffered, status.Queued),
		fmt.Sprintf("dropped %d", status.Dropped),
	}

	if status.Underruns > 0 {
		parts = append(parts, style.Fg(color.Yellow)(fmt.Sprintf("underruns %d", status.Underruns)))
	}

	return style.Faint(strings.Join(parts, "  ·  "))
}

func (b *transportBubble) viewError() string {
	errorBody := style.New().Foreground(style.ErrorColor).Bold(true).
		Render(fmt.Sprintf("Playback failed: %v", b.status.Err))

	return b.renderLines(
		true,
		append([]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
		},
			wrap.String(errorBody, util.Max(b.width-4, 20)),
		),
	)
}

func (b *transportBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
