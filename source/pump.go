// Package source defines the decoder abstraction that turns media files into
// streams of timestamped frames, and its engine-backed implementation.
package source

import (
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
)

// Pump readahead depths. These bound how far a decode process may run ahead
// of its consumer before the pipe send blocks.
const (
	videoPumpDepth = 4
	audioPumpDepth = 8
)

// stopGrace is how long a pump waits for its process to exit after the pipe
// is torn down before force-killing it.
const stopGrace = 3 * time.Second

// pump owns one engine process decoding a single stream type into a bounded
// channel. It is the single producer; the owning source is the single
// consumer. Once the channel closes, err holds the terminal condition.
type pump[T any] struct {
	cmd    *exec.Cmd
	out    io.ReadCloser
	frames chan T
	stop   chan struct{}
	exited chan struct{}

	once sync.Once
	err  error
}

func newPump[T any](cmd *exec.Cmd, out io.ReadCloser, depth int) *pump[T] {
	return &pump[T]{
		cmd:    cmd,
		out:    out,
		frames: make(chan T, depth),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// start launches the process, its reaper, and the read loop.
// read must block pulling one frame from the process output and return it,
// or an error.
func (p *pump[T]) start(path string, read func() (T, error)) error {
	if err := p.cmd.Start(); err != nil {
		return media.NewDecodeError(media.DecodeIO, path, err)
	}

	// Reap the process to prevent zombies.
	go func() {
		_ = p.cmd.Wait()
		close(p.exited)
	}()

	go p.run(path, read)
	return nil
}

func (p *pump[T]) run(path string, read func() (T, error)) {
	defer close(p.frames)

	for {
		frame, err := read()
		if err != nil {
			p.finish(path, err)
			return
		}

		select {
		case p.frames <- frame:
		case <-p.stop:
			p.fail(errStopped)
			return
		}
	}
}

// finish classifies the terminal read error. A clean EOF from a process that
// exited zero is end-of-stream; a nonzero exit means the stream died mid-file.
func (p *pump[T]) finish(path string, readErr error) {
	select {
	case <-p.stop:
		p.fail(errStopped)
		return
	default:
	}

	if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
		p.fail(media.NewDecodeError(media.DecodeIO, path, readErr))
		return
	}

	<-p.exited
	if state := p.cmd.ProcessState; state != nil && state.ExitCode() != 0 {
		p.fail(media.NewDecodeError(media.DecodeCorrupt, path, errors.New(state.String())))
		return
	}
	if errors.Is(readErr, io.ErrUnexpectedEOF) {
		p.fail(media.NewDecodeError(media.DecodeCorrupt, path, readErr))
		return
	}

	p.fail(media.ErrEndOfStream)
}

func (p *pump[T]) fail(err error) {
	p.once.Do(func() { p.err = err })
}

// halt tears the pump down: the read loop is released, the process is asked
// to die, and any buffered frames are discarded.
func (p *pump[T]) halt() {
	close(p.stop)
	_ = p.out.Close()

	select {
	case <-p.exited:
	case <-time.After(stopGrace):
		log.Warnf("decode process unresponsive, killing")
		killProcess(p.cmd)
		<-p.exited
	}

	// Drain so the read loop's pending send, if any, completes.
	for range p.frames {
	}
}

// errStopped marks frames rejected because the pump was halted mid-send.
var errStopped = errors.New("decoder stopped")
