package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/spf13/viper"

	"github.com/montage-cli/montage/ffmpeg"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/util"
)

const defaultTailLines = 20

// Runner executes a single export job against the engine binary.
type Runner struct {
	// OnProgress receives every recognized status line. May be nil.
	OnProgress func(media.ProgressEvent)
}

// Run spawns the job and blocks until it finishes. The engine's status
// stream is parsed for progress while every unrecognized line feeds a
// bounded diagnostic tail. A nonzero exit surfaces as media.ExportFailed
// carrying that tail verbatim; the failure is never retried here.
func (r Runner) Run(ctx context.Context, job Job) error {
	cmd := exec.CommandContext(ctx, ffmpeg.Path(), job.Args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open export status stream: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start export: %w", err)
	}

	log.Debugf("export process running: %s %s", ffmpeg.Path(), strings.Join(job.Args, " "))

	tail := consume(stderr, job.Total, r.OnProgress)
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	if waitErr == nil {
		return nil
	}

	code := -1
	var exit *exec.ExitError
	if errors.As(waitErr, &exit) {
		code = exit.ExitCode()
	}

	return &media.ExportFailed{ExitCode: code, Tail: tail}
}

// consume drains one engine status stream. Recognized progress lines are
// forwarded; everything else lands in the diagnostic tail, sized from
// configuration.
func consume(stream io.Reader, total float64, onProgress func(media.ProgressEvent)) []string {
	depth := viper.GetInt(key.ExportTailLines)
	if depth <= 0 {
		depth = defaultTailLines
	}

	tail := util.NewRing[string](depth)

	scanner := ffmpeg.NewStatusScanner(stream)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if status, ok := ffmpeg.ParseLine(line); ok {
			if onProgress != nil {
				onProgress(status.Event(total))
			}

			continue
		}

		tail.Push(line)
	}

	return tail.Items()
}
