// Package cmd implements the command-line interface for montage.
package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
	"github.com/montage-cli/montage/waveform"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(waveformCmd)
	waveformCmd.SetOut(os.Stdout)

	waveformCmd.Flags().IntP("buckets", "b", 0, "Number of amplitude buckets (0 uses the configured default)")
	waveformCmd.Flags().BoolP("json", "j", false, "Format the envelope as a JSON string")
	waveformCmd.Flags().IntP("width", "w", 0, "Preview width in columns (0 fits the terminal)")
}

// waveformCmd extracts and previews the amplitude envelope of an audio track.
var waveformCmd = &cobra.Command{
	Use:   "waveform <file>",
	Short: "Extract the downsampled amplitude envelope of a media file",
	Long: `Decode the audio track once and reduce it to a fixed number of (min, max)
amplitude buckets for timeline display. Envelopes are cached on disk and
reused until the file changes.`,
	Args:   cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) { checkEngine() },
	Run: func(cmd *cobra.Command, args []string) {
		var (
			buckets = lo.Must(cmd.Flags().GetInt("buckets"))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
			width   = lo.Must(cmd.Flags().GetInt("width"))
		)

		path, err := filepath.Abs(args[0])
		handleErr(err)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		eraser := util.PrintErasable("Extracting waveform...")
		env, err := waveform.Extract(ctx, path, buckets)
		eraser()
		handleErr(err)

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			lo.Must0(encoder.Encode(env))
			return
		}

		if width <= 0 {
			width, _, err = util.TerminalSize()
			if err != nil || width <= 0 {
				width = env.BucketCount()
			}
		}

		cmd.Println(waveform.Render(env, width))
		cmd.Printf(
			"%s  %d buckets  peak %.3f\n",
			util.FormatTime(env.Duration),
			env.BucketCount(),
			env.Peak(),
		)
	},
}

func init() {
	waveformCmd.AddCommand(waveformSchemaCmd)
	waveformSchemaCmd.SetOut(os.Stdout)
}

// waveformSchemaCmd emits the JSON schema of the envelope model.
var waveformSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Display the JSON schema of the waveform envelope model",
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&media.WaveformEnvelope{})

		raw, err := json.MarshalIndent(schema, "", "  ")
		handleErr(err)

		cmd.Println(strings.TrimSpace(string(raw)))
	},
}
