// Package cmd implements the command-line interface for montage.
package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/montage-cli/montage/color"
	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/style"
	"github.com/montage-cli/montage/util"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.SetOut(os.Stdout)
	inspectCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
}

// inspectCmd probes a media file and reports its stream properties.
var inspectCmd = &cobra.Command{
	Use:    "inspect <file>",
	Short:  "Probe a media file and display its stream properties",
	Args:   cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) { checkEngine() },
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		path, err := filepath.Abs(args[0])
		handleErr(err)

		info, err := ffmpeg.Probe(context.Background(), path)
		handleErr(err)

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(info))
			return
		}

		handleErr(inspectTemplate.Execute(cmd.OutOrStdout(), info))
	},
}

var inspectTemplate = lo.Must(template.New("inspect").Funcs(template.FuncMap{
	"faint":  style.Faint,
	"bold":   style.Bold,
	"purple": style.Fg(color.Purple),
	"yellow": style.Fg(color.Yellow),
	"green":  style.Fg(color.Green),
	"red":    style.Fg(color.Red),
	"time":   util.FormatTimePrecise,
	"stem":   util.FileStem,
	"yesno": func(v bool) string {
		if v {
			return style.Fg(color.Green)("yes")
		}
		return style.Fg(color.Red)("no")
	},
}).Parse(`{{ purple (stem .Path) }}

  {{ faint "Container" }}    {{ bold .Container }}
  {{ faint "Duration" }}     {{ bold (time .Duration) }}
{{- if .HasVideo }}

  {{ yellow "Video" }}        {{ yesno .HasVideo }}
  {{ faint "Codec" }}        {{ bold .VideoCodec }}
  {{ faint "Resolution" }}   {{ bold (printf "%dx%d" .Width .Height) }}
  {{ faint "Frame rate" }}   {{ bold (printf "%.3f" .FrameRate) }} {{ faint (printf "(%d/%d)" .FrameRateNum .FrameRateDen) }}
  {{ faint "Pixel fmt" }}    {{ bold .PixelFormat }}
{{- else }}

  {{ yellow "Video" }}        {{ yesno .HasVideo }}
{{- end }}
{{- if .HasAudio }}

  {{ yellow "Audio" }}        {{ yesno .HasAudio }}
  {{ faint "Codec" }}        {{ bold .AudioCodec }}
  {{ faint "Sample rate" }}  {{ bold (printf "%d" .SampleRate) }} Hz
  {{ faint "Channels" }}     {{ bold (printf "%d" .Channels) }}
{{- else }}

  {{ yellow "Audio" }}        {{ yesno .HasAudio }}
{{- end }}
{{- if .BitRate }}

  {{ faint "Bit rate" }}     {{ bold (printf "%d" .BitRate) }} b/s
{{- end }}
`))

func init() {
	inspectCmd.AddCommand(inspectSchemaCmd)
	inspectSchemaCmd.SetOut(os.Stdout)
}

// inspectSchemaCmd emits the JSON schema of the probe result model.
var inspectSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Display the JSON schema of the probe result model",
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&media.Info{})

		raw, err := json.MarshalIndent(schema, "", "  ")
		handleErr(err)

		cmd.Println(strings.TrimSpace(string(raw)))
	},
}
