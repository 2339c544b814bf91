// Package cmd implements the command-line interface for montage.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/montage-cli/montage/color"
	"github.com/montage-cli/montage/export"
	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/filesystem"
	"github.com/montage-cli/montage/icon"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/style"
	"github.com/montage-cli/montage/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("input", "i", "", "Input file to probe for the total duration of the job")
	exportCmd.Flags().StringP("output", "o", "", "Artifact the job produces, used for overwrite confirmation")
	exportCmd.Flags().StringP("name", "n", "", "Label for the job in logs and output")
	exportCmd.Flags().BoolP("yes", "y", false, "Skip the overwrite confirmation")
}

// exportCmd monitors an externally assembled engine invocation.
var exportCmd = &cobra.Command{
	Use:   "export [flags] -- <engine arguments...>",
	Short: "Run an externally assembled engine job and monitor its progress",
	Long: `Spawn the engine with the argument vector given after --, parse its status
stream into progress reports, and surface a nonzero exit together with the
final output lines. montage never assembles format, codec, or filter flags;
the invocation arrives complete from the caller.`,
	Example: "  montage export -i clip.mp4 -o out.mp4 -- -i clip.mp4 -ss 1.0 -to 5.0 -c copy out.mp4",
	Args:    cobra.MinimumNArgs(1),
	PreRun:  func(cmd *cobra.Command, args []string) { checkEngine() },
	Run: func(cmd *cobra.Command, args []string) {
		var (
			input  = lo.Must(cmd.Flags().GetString("input"))
			output = lo.Must(cmd.Flags().GetString("output"))
			name   = lo.Must(cmd.Flags().GetString("name"))
			yes    = lo.Must(cmd.Flags().GetBool("yes"))
		)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		var total float64
		if input != "" {
			info, err := ffmpeg.Probe(ctx, input)
			handleErr(err)
			total = info.Duration
		}

		if output != "" && !yes {
			confirmOverwrite(output)
		}

		if name == "" {
			name = jobName(input, output)
		}

		queue := export.NewQueue(ctx)
		defer util.Ignore(queue.Close)

		updates := queue.Subscribe()
		id := queue.Add(export.Job{Name: name, Args: args, Total: total})

		go func() {
			for status := range updates {
				if status.Job.ID == id && status.State == export.Running {
					printExportProgress(name, status.Progress)
				}
			}
		}()

		queue.Wait()

		status, ok := queue.Job(id)
		if !ok {
			handleErr(fmt.Errorf("job %d vanished from the queue", id))
		}

		switch status.State {
		case export.Completed:
			fmt.Printf("\r%s %s completed%s\n", icon.Get(icon.Success), name, clearTail)
		case export.Cancelled:
			fmt.Printf("\r%s %s cancelled%s\n", icon.Get(icon.Fail), name, clearTail)
		default:
			fmt.Println()
			reportExportFailure(status.Err)
		}
	},
}

// clearTail wipes leftovers of a longer previous progress line.
const clearTail = "                    "

func printExportProgress(name string, progress media.ProgressEvent) {
	line := fmt.Sprintf(
		"\r%s %s  %s",
		icon.Get(icon.Export),
		name,
		util.FormatTime(progress.Elapsed),
	)

	if progress.Total > 0 {
		line += fmt.Sprintf(" / %s  %5.1f%%", util.FormatTime(progress.Total), progress.Percent())
	}

	if progress.Speed > 0 {
		line += fmt.Sprintf("  %.2fx", progress.Speed)
	}

	fmt.Print(line)
}

// reportExportFailure surfaces the failure verbatim, including the captured
// diagnostic tail when the engine exited nonzero.
func reportExportFailure(err error) {
	var failed *media.ExportFailed
	if errors.As(err, &failed) {
		fmt.Fprintf(os.Stderr, "%s engine exited with code %d\n", icon.Get(icon.Fail), failed.ExitCode)
		for _, line := range failed.Tail {
			fmt.Fprintf(os.Stderr, "  %s\n", style.Faint(line))
		}
		os.Exit(1)
	}

	handleErr(err)
}

func confirmOverwrite(output string) {
	exists, err := filesystem.API().Exists(output)
	handleErr(err)
	if !exists {
		return
	}

	var confirmed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s already exists. Overwrite it?", style.Fg(color.Yellow)(output)),
	}

	handleErr(survey.AskOne(prompt, &confirmed))
	if !confirmed {
		fmt.Printf("%s export aborted\n", icon.Get(icon.Fail))
		os.Exit(0)
	}
}

func jobName(input, output string) string {
	switch {
	case output != "":
		return filepath.Base(output)
	case input != "":
		return util.FileStem(input)
	default:
		return "export"
	}
}
