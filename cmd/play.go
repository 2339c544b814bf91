// Package cmd implements the command-line interface for montage.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/montage-cli/montage/history"
	"github.com/montage-cli/montage/icon"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/player"
	"github.com/montage-cli/montage/source"
	"github.com/montage-cli/montage/tui"
	"github.com/montage-cli/montage/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("continue", "c", false, "Resume playback from the saved position of this file")
	playCmd.Flags().StringP("position", "p", "", "Start playback at the given time (seconds or [HH:]MM:SS)")
	playCmd.Flags().Bool("headless", false, "Play without the transport view, reporting progress on one line")
	playCmd.Flags().Float64P("rate", "r", 1.0, "Initial playback rate, from 0.5 to 2.0")

	playCmd.MarkFlagsMutuallyExclusive("continue", "position")
}

// playCmd runs synchronized playback of a single media file.
var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play a media file with synchronized audio and video",
	Long: `Play a media file through the external engine, keeping video presentation
locked to the audio clock. Without --headless, an interactive transport view
offers pause, seeking, rate, and volume control.`,
	Args:   cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) { checkEngine() },
	Run: func(cmd *cobra.Command, args []string) {
		var (
			resume   = lo.Must(cmd.Flags().GetBool("continue"))
			position = lo.Must(cmd.Flags().GetString("position"))
			headless = lo.Must(cmd.Flags().GetBool("headless"))
			rate     = lo.Must(cmd.Flags().GetFloat64("rate"))
		)

		path, err := filepath.Abs(args[0])
		handleErr(err)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		src, err := source.Open(ctx, path)
		handleErr(err)
		defer util.Ignore(src.Close)

		at := 0.0
		if position != "" {
			at, err = util.ParseTime(position)
			handleErr(err)
		} else if resume {
			if saved, ok := history.For(path); ok {
				at = saved.Position
			}
		}

		p := player.New(src, nil)
		handleErr(p.Start(ctx, at))
		defer util.Ignore(p.Close)

		if rate != 1.0 {
			p.SetRate(rate)
		}

		if headless {
			err = runHeadless(ctx, p)
		} else {
			err = tui.Run(p, &tui.Options{Name: util.FileStem(path)})
		}

		if viper.GetBool(key.HistorySaveOnStop) {
			status := p.Status()
			handleErr(history.Save(path, status.Position, status.Duration))
		}

		if err != nil && !errors.Is(err, context.Canceled) {
			handleErr(err)
		}
	},
}

// runHeadless drives playback to completion without the transport view,
// rewriting a single status line the way the engine itself reports progress.
func runHeadless(ctx context.Context, p *player.Player) error {
	updates := p.Subscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case status, ok := <-updates:
			if !ok {
				return nil
			}

			fmt.Printf(
				"\r%s %s / %s  %5.1f%%  %d dropped",
				icon.Get(icon.Play),
				util.FormatTime(status.Position),
				util.FormatTime(status.Duration),
				status.Percent(),
				status.Dropped,
			)

			if status.State == player.Stopped {
				fmt.Println()
				return status.Err
			}
		}
	}
}
