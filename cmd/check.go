// Package cmd implements the command-line interface for montage.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/montage-cli/montage/constant"
	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/icon"
	"github.com/montage-cli/montage/style"
	"github.com/charmbracelet/lipgloss"
)

// checkEngine verifies the availability of the external engine binaries.
// Commands that decode, analyze, or export media call it before doing any work.
func checkEngine() {
	for _, binary := range []string{ffmpeg.Path(), ffmpeg.ProbePath()} {
		if _, err := exec.LookPath(binary); err != nil {
			printMissingDependencyError(binary)
			os.Exit(1)
		}
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install ffmpeg"
	case constant.Linux:
		installCmd = "sudo apt install ffmpeg" // Generic, maybe check distro
	case constant.Windows:
		installCmd = "scoop install ffmpeg"
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
