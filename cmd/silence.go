// Package cmd implements the command-line interface for montage.
package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/montage-cli/montage/color"
	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/style"
	"github.com/montage-cli/montage/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(silenceCmd)
	silenceCmd.SetOut(os.Stdout)

	silenceCmd.Flags().IntP("threshold", "t", 0, "Noise floor in dB below which audio counts as silence (0 uses the configured default)")
	silenceCmd.Flags().Float64P("min-duration", "d", 0, "Minimum silence length in seconds (0 uses the configured default)")
	silenceCmd.Flags().Bool("cuts", false, "Print the content ranges worth keeping instead of the silences")
	silenceCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// silenceCmd analyzes the audio track of a file for quiet stretches.
var silenceCmd = &cobra.Command{
	Use:   "silence <file>",
	Short: "Detect silent stretches in a media file's audio track",
	Long: `Run the engine's silencedetect filter over the audio track and report the
quiet stretches found. With --cuts the complement is printed instead: the
trim ranges of audible content, with a proportional safety margin applied.`,
	Args:   cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) { checkEngine() },
	Run: func(cmd *cobra.Command, args []string) {
		var (
			threshold   = lo.Must(cmd.Flags().GetInt("threshold"))
			minDuration = lo.Must(cmd.Flags().GetFloat64("min-duration"))
			asCuts      = lo.Must(cmd.Flags().GetBool("cuts"))
			asJson      = lo.Must(cmd.Flags().GetBool("json"))
		)

		if threshold == 0 {
			threshold = viper.GetInt(key.SilenceThreshold)
		}
		if minDuration <= 0 {
			minDuration = viper.GetFloat64(key.SilenceMinDuration)
		}

		path, err := filepath.Abs(args[0])
		handleErr(err)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		info, err := ffmpeg.Probe(ctx, path)
		handleErr(err)

		eraser := util.PrintErasable("Analyzing audio track...")
		ranges, err := ffmpeg.DetectSilence(ctx, info, threshold, minDuration)
		eraser()
		handleErr(err)

		encode := func(v any) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			lo.Must0(encoder.Encode(v))
		}

		if asCuts {
			cuts := ffmpeg.CutPoints(ranges, info.Duration, viper.GetFloat64(key.SilenceCutMargin))

			if asJson {
				encode(cuts)
				return
			}

			for _, cut := range cuts {
				cmd.Printf(
					"%s %s - %s  %s\n",
					style.Fg(color.Green)("keep"),
					util.FormatTimePrecise(cut.In),
					util.FormatTimePrecise(cut.Out),
					style.Faint(util.FormatTime(cut.Duration())),
				)
			}
			return
		}

		if asJson {
			encode(ranges)
			return
		}

		if len(ranges) == 0 {
			cmd.Printf("no silence below %d dB lasting at least %.2fs\n", threshold, minDuration)
			return
		}

		for _, r := range ranges {
			cmd.Printf(
				"%s %s - %s  %s\n",
				style.Fg(color.Yellow)("silence"),
				util.FormatTimePrecise(r.Start),
				util.FormatTimePrecise(r.End),
				style.Faint(util.FormatTime(r.Duration())),
			)
		}
	},
}
