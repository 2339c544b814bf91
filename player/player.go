package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/montage-cli/montage/audio"
	"github.com/montage-cli/montage/key"
	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
	"github.com/montage-cli/montage/source"
	"github.com/montage-cli/montage/util"
)

// State names a controller phase.
type State uint8

const (
	Stopped State = iota
	Playing
	Paused
	Seeking
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Seeking:
		return "seeking"
	default:
		return "unknown"
	}
}

// PresentFunc receives the video frame due for display. It runs on the
// controller goroutine and must return quickly.
type PresentFunc func(frame media.VideoFrame)

// Status is a read-only snapshot of the controller.
type Status struct {
	State     State
	Position  float64
	Duration  float64
	Rate      float64
	Volume    float64
	Buffered  int
	Queued    int
	Presented int
	Dropped   int
	Underruns int
	Silent    bool
	Err       error
}

// Percent returns the position as a share of the duration.
func (s Status) Percent() float64 {
	if s.Duration <= 0 {
		return 0
	}

	return util.Clamp(s.Position/s.Duration*100, 0, 100)
}

type commandKind uint8

const (
	cmdPlay commandKind = iota
	cmdPause
	cmdResume
	cmdToggle
	cmdStop
	cmdSeek
	cmdRate
	cmdVolume
	cmdClose
)

type command struct {
	kind  commandKind
	value float64
}

type eventKind uint8

const (
	eventVideoDone eventKind = iota
	eventAudioDone
	eventFailed
)

type event struct {
	kind eventKind
	gen  int
	err  error
}

const (
	tickInterval   = 5 * time.Millisecond
	statusInterval = 100 * time.Millisecond

	// seekSettle bounds how long a seek may wait for buffers to refill
	// before playback resumes regardless.
	seekSettle = 2 * time.Second

	commandBacklog = 16

	defaultVideoBuffer  = 30
	defaultLowWatermark = 6
	defaultDropWindow   = 0.05
	defaultHoldWindow   = 0.01
)

// Player is the sync controller. It owns the clock, pulls from the
// decoder source through two fill goroutines, feeds the audio sink, and
// presents the video frame due for the current media time. All control
// goes through a command channel; reads go through Status snapshots.
//
// While an audio track plays, the position follows sample consumption and
// the clock is re-anchored to it every tick; video is dropped or held to
// match. Without audio, the clock extrapolates wall time scaled by rate.
type Player struct {
	source  source.Source
	sink    *audio.Sink
	clock   *PlaybackClock
	buffer  *FrameBuffer
	present PresentFunc

	info         media.Info
	dropWindow   float64
	holdWindow   float64
	lowWatermark int

	commands chan command
	events   chan event
	done     chan struct{}

	launched bool
	closing  sync.Once

	sessionCtx    context.Context
	sessionCancel context.CancelFunc

	subMu sync.Mutex
	subs  []chan Status

	statusMu sync.RWMutex
	status   Status

	// Everything below is owned by the controller goroutine.
	state           State
	gen             int
	fillCancel      context.CancelFunc
	fillWG          sync.WaitGroup
	videoEOS        bool
	audioEOS        bool
	resumeAfterSeek bool
	seekBegan       time.Time
	presented       int
	lateDrops       int
	seenUnderruns   int
	lastErr         error
	lastPublish     time.Time
}

// New builds a controller over an opened source. Present may be nil for
// headless playback; presented frames are then only counted.
func New(src source.Source, present PresentFunc) *Player {
	info := src.Info()

	capacity := viper.GetInt(key.PlaybackVideoBuffer)
	if capacity <= 0 {
		capacity = defaultVideoBuffer
	}

	low := viper.GetInt(key.PlaybackLowWatermark)
	if low <= 0 {
		low = defaultLowWatermark
	}
	low = util.Min(low, capacity)

	drop := viper.GetFloat64(key.PlaybackDropWindow)
	if drop <= 0 {
		drop = defaultDropWindow
	}

	hold := viper.GetFloat64(key.PlaybackHoldWindow)
	if hold <= 0 {
		hold = defaultHoldWindow
	}

	p := &Player{
		source:       src,
		clock:        NewClock(),
		buffer:       NewFrameBuffer(capacity),
		present:      present,
		info:         info,
		dropWindow:   drop,
		holdWindow:   hold,
		lowWatermark: low,
		commands:     make(chan command, commandBacklog),
		events:       make(chan event, 16),
		done:         make(chan struct{}),
	}

	p.status = Status{State: Stopped, Duration: info.Duration, Rate: 1, Volume: 1}
	return p
}

// Info returns the stream metadata of the playing file.
func (p *Player) Info() media.Info {
	return p.info
}

// Start opens the session at the given media time and begins playing.
// Failures opening the source or the audio output are fatal to the
// session and returned to the caller.
func (p *Player) Start(ctx context.Context, at float64) error {
	if d := p.info.Duration; d > 0 {
		at = util.Clamp(at, 0, d)
	} else if at < 0 {
		at = 0
	}

	p.sessionCtx, p.sessionCancel = context.WithCancel(ctx)

	if err := p.source.Start(p.sessionCtx, at); err != nil {
		return err
	}

	if p.info.HasAudio {
		sink, err := audio.Open(audio.OutputFormat(p.info), at)
		if err != nil {
			return err
		}

		p.sink = sink
	}

	p.clock.Anchor(at)
	p.state = Playing
	p.videoEOS = !p.info.HasVideo
	p.audioEOS = !p.info.HasAudio
	p.startFillers()
	p.publish(true)

	p.launched = true
	go p.loop()

	log.Infof("playing %s from %.3f", p.info.Path, at)
	return nil
}

// Play restarts a stopped session from where it stopped, or from the
// beginning after the clip finished.
func (p *Player) Play() { p.post(command{kind: cmdPlay}) }

// Pause freezes the clock and stops the audio drain.
func (p *Player) Pause() { p.post(command{kind: cmdPause}) }

// Resume continues after a pause.
func (p *Player) Resume() { p.post(command{kind: cmdResume}) }

// TogglePause flips between playing and paused, restarting when stopped.
func (p *Player) TogglePause() { p.post(command{kind: cmdToggle}) }

// Stop ends playback, keeping the position for a later Play.
func (p *Player) Stop() { p.post(command{kind: cmdStop}) }

// Seek jumps to the target media time. Targets outside the clip are
// clamped. The pre-seek running state is restored once buffers refill.
func (p *Player) Seek(target float64) { p.post(command{kind: cmdSeek, value: target}) }

// SetRate changes the playback rate, clamped to [MinRate, MaxRate]. With
// an audio track the position follows sample consumption, so rates other
// than 1.0 fully apply to silent and video-only playback.
func (p *Player) SetRate(rate float64) { p.post(command{kind: cmdRate, value: rate}) }

// SetVolume scales audio output, clamped to [0, 1].
func (p *Player) SetVolume(volume float64) { p.post(command{kind: cmdVolume, value: volume}) }

// Status returns a snapshot with a live position reading.
func (p *Player) Status() Status {
	p.statusMu.RLock()
	s := p.status
	p.statusMu.RUnlock()

	s.Position = p.clock.Now()
	if s.Duration > 0 {
		s.Position = util.Clamp(s.Position, 0, s.Duration)
	}

	return s
}

// Subscribe returns a channel receiving snapshots on every transition and
// periodically during playback. A slow receiver misses snapshots instead
// of stalling the controller. The channel closes when the player closes.
func (p *Player) Subscribe() <-chan Status {
	ch := make(chan Status, 4)

	p.subMu.Lock()
	p.subs = append(p.subs, ch)
	p.subMu.Unlock()

	return ch
}

// Close tears the session down. The source itself stays open; it belongs
// to the caller.
func (p *Player) Close() error {
	p.closing.Do(func() {
		if p.launched {
			p.commands <- command{kind: cmdClose}
			<-p.done
		}

		if p.sessionCancel != nil {
			p.sessionCancel()
		}

		if p.sink != nil {
			util.Ignore(p.sink.Close)
		}
	})

	return nil
}

func (p *Player) post(cmd command) {
	select {
	case p.commands <- cmd:
	case <-p.done:
	}
}

func (p *Player) loop() {
	defer close(p.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-p.commands:
			if p.handle(cmd) {
				return
			}
		case ev := <-p.events:
			p.handleEvent(ev)
		case <-ticker.C:
			p.tick()
		}
	}
}

// handle runs one command. It reports true when the loop must exit.
func (p *Player) handle(cmd command) bool {
	switch cmd.kind {
	case cmdClose:
		p.shutdown()
		return true
	case cmdPlay:
		p.play()
	case cmdPause:
		p.pause()
	case cmdResume:
		p.resume()
	case cmdToggle:
		switch p.state {
		case Playing:
			p.pause()
		case Paused:
			p.resume()
		case Stopped:
			p.play()
		}
	case cmdStop:
		p.stop(nil)
	case cmdSeek:
		p.seek(cmd.value)
	case cmdRate:
		rate := p.clock.SetRate(cmd.value)
		log.Debugf("playback rate set to %.2f", rate)
		p.publish(true)
	case cmdVolume:
		if p.sink != nil {
			p.sink.SetVolume(cmd.value)
		}
		p.publish(true)
	}

	return false
}

func (p *Player) handleEvent(ev event) {
	if ev.gen != p.gen {
		return
	}

	switch ev.kind {
	case eventVideoDone:
		p.videoEOS = true
	case eventAudioDone:
		p.audioEOS = true
	case eventFailed:
		p.stop(ev.err)
	}
}

func (p *Player) tick() {
	switch p.state {
	case Seeking:
		p.settleSeek()
	case Playing:
		p.advance()
	}

	p.publish(false)
}

// advance is the per-tick playback step: read the reference clock, pop
// the due frame keeping only the newest, apply the drop and hold windows,
// then check for the end of both tracks.
func (p *Player) advance() {
	now := p.currentTime()

	if p.sink != nil {
		if u := p.sink.Underruns(); u > p.seenUnderruns {
			p.seenUnderruns = u
			log.Warnf("audio queue underrun, clock re-anchors at the next sample")
		}
	}

	if frame, droppedOld, ok := p.buffer.PopDue(now); ok {
		if droppedOld > 0 {
			log.Debugf("dropped %d stale frames before %.3f", droppedOld, frame.PTS)
		}

		if lag := now - frame.PTS; lag > p.dropWindow {
			p.lateDrops++
			log.Debugf("dropped frame %.3f lagging %.0f ms", frame.PTS, lag*1000)
		} else {
			p.presentFrame(frame)
		}
	} else if next, ok := p.buffer.Peek(); ok && next.PTS-now <= p.holdWindow {
		if frame, _, ok := p.buffer.PopDue(next.PTS); ok {
			p.presentFrame(frame)
		}
	}

	p.checkFinished()
}

// currentTime returns the reference media time: what the audio device has
// actually rendered while the track lasts, wall extrapolation otherwise.
// The clock is glued to the audio reading so UI snapshots agree.
func (p *Player) currentTime() float64 {
	if p.sink != nil && !p.audioEOS {
		now := p.sink.PlayedPosition()
		p.clock.Seek(now)
		return now
	}

	return p.clock.Now()
}

func (p *Player) presentFrame(frame media.VideoFrame) {
	if p.present != nil {
		p.present(frame)
	}

	p.presented++
}

func (p *Player) checkFinished() {
	if !p.videoEOS || !p.audioEOS {
		return
	}

	if p.buffer.Len() > 0 {
		return
	}

	if p.sink != nil && p.sink.Queued() > 0 {
		return
	}

	p.finish()
}

func (p *Player) finish() {
	p.stopFillers()

	if p.sink != nil {
		p.sink.Pause()
	}

	p.clock.Pause()
	if p.info.Duration > 0 {
		p.clock.Seek(p.info.Duration)
	}

	p.state = Stopped
	p.publish(true)

	log.Infof("playback of %s finished", p.info.Path)
}

func (p *Player) play() {
	if p.state != Stopped {
		return
	}

	at := p.clock.Now()
	if d := p.info.Duration; d > 0 && at >= d-1e-6 {
		at = 0
	}

	if err := p.source.Start(p.sessionCtx, at); err != nil {
		p.stop(err)
		return
	}

	p.buffer.Flush()
	if p.sink != nil {
		p.sink.Flush(at)
		p.sink.Resume()
	}

	p.clock.Anchor(at)
	p.lastErr = nil
	p.videoEOS = !p.info.HasVideo
	p.audioEOS = !p.info.HasAudio
	p.startFillers()
	p.setState(Playing)
}

func (p *Player) pause() {
	if p.state != Playing {
		return
	}

	p.clock.Pause()
	if p.sink != nil {
		p.sink.Pause()
	}

	p.setState(Paused)
}

func (p *Player) resume() {
	if p.state != Paused {
		return
	}

	p.clock.Resume()
	if p.sink != nil {
		p.sink.Resume()
	}

	p.setState(Playing)
}

func (p *Player) stop(err error) {
	p.stopFillers()
	p.buffer.Flush()

	if p.sink != nil {
		p.sink.Pause()
	}

	p.clock.Pause()

	if err != nil {
		p.lastErr = err
		log.Errorf("playback stopped: %v", err)
	}

	if p.state != Stopped {
		p.state = Stopped
		log.Debugf("playback stopped at %.3f", p.clock.Now())
	}

	p.publish(true)
}

// seek is the cancellation point: the fill goroutines are joined, both
// buffers flushed, the source repositioned, and the clock pinned to the
// acknowledged target, in that order. Nothing decoded before the seek
// survives it.
func (p *Player) seek(target float64) {
	if p.state == Stopped {
		return
	}

	wasRunning := p.state == Playing || (p.state == Seeking && p.resumeAfterSeek)

	p.stopFillers()
	p.buffer.Flush()

	if p.sink != nil {
		p.sink.Pause()
	}

	position, err := p.source.Seek(p.sessionCtx, target)
	if err != nil {
		p.stop(err)
		return
	}

	if p.sink != nil {
		p.sink.Flush(position)
	}

	p.clock.Pause()
	p.clock.Seek(position)

	p.resumeAfterSeek = wasRunning
	p.seekBegan = time.Now()
	p.videoEOS = !p.info.HasVideo
	p.audioEOS = !p.info.HasAudio
	p.startFillers()
	p.setState(Seeking)
}

// settleSeek waits for the refill watermarks, then restores the pre-seek
// running state.
func (p *Player) settleSeek() {
	videoReady := p.videoEOS || p.buffer.Len() >= p.lowWatermark
	audioReady := p.sink == nil || p.audioEOS ||
		p.sink.Queued() >= util.Min(p.lowWatermark, p.sink.Capacity())

	if !(videoReady && audioReady) {
		if time.Since(p.seekBegan) < seekSettle {
			return
		}

		log.Warnf("seek settling timed out, resuming with lean buffers")
	}

	if p.resumeAfterSeek {
		if p.sink != nil {
			p.sink.Resume()
		}

		p.clock.Resume()
		p.setState(Playing)
		return
	}

	p.setState(Paused)
}

func (p *Player) shutdown() {
	p.stopFillers()
	p.buffer.Flush()

	if p.sink != nil {
		p.sink.Pause()
	}

	p.clock.Pause()
	p.state = Stopped
	p.publish(true)

	p.subMu.Lock()
	for _, sub := range p.subs {
		close(sub)
	}
	p.subs = nil
	p.subMu.Unlock()
}

func (p *Player) startFillers() {
	ctx, cancel := context.WithCancel(p.sessionCtx)
	p.fillCancel = cancel

	p.gen++
	gen := p.gen

	if p.info.HasVideo {
		p.fillWG.Add(1)
		go p.fillVideo(ctx, gen)
	}

	if p.info.HasAudio {
		p.fillWG.Add(1)
		go p.fillAudio(ctx, gen)
	}
}

func (p *Player) stopFillers() {
	if p.fillCancel != nil {
		p.fillCancel()
		p.fillCancel = nil
	}

	p.fillWG.Wait()
}

func (p *Player) fillVideo(ctx context.Context, gen int) {
	defer p.fillWG.Done()

	for {
		frame, err := p.source.NextVideo(ctx)
		if err != nil {
			p.report(ctx, gen, eventVideoDone, err)
			return
		}

		if p.buffer.PushWait(ctx, frame) != nil {
			return
		}
	}
}

func (p *Player) fillAudio(ctx context.Context, gen int) {
	defer p.fillWG.Done()

	for {
		frame, err := p.source.NextAudio(ctx)
		if err != nil {
			p.report(ctx, gen, eventAudioDone, err)
			return
		}

		if p.sink.PushWait(ctx, frame) != nil {
			return
		}
	}
}

// report turns the end of a fill loop into a controller event. Cancelled
// fills report nothing; the canceller already knows.
func (p *Player) report(ctx context.Context, gen int, done eventKind, err error) {
	if ctx.Err() != nil {
		return
	}

	ev := event{kind: done, gen: gen}
	if !errors.Is(err, media.ErrEndOfStream) {
		ev = event{kind: eventFailed, gen: gen, err: err}
	}

	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

func (p *Player) setState(state State) {
	if p.state == state {
		return
	}

	p.state = state
	log.Debugf("playback %s", state)
	p.publish(true)
}

// publish refreshes the shared snapshot and, forced or on the periodic
// cadence, fans it out to subscribers.
func (p *Player) publish(force bool) {
	status := p.snapshot()

	p.statusMu.Lock()
	p.status = status
	p.statusMu.Unlock()

	if !force && time.Since(p.lastPublish) < statusInterval {
		return
	}
	p.lastPublish = time.Now()

	p.subMu.Lock()
	for _, sub := range p.subs {
		select {
		case sub <- status:
		default:
		}
	}
	p.subMu.Unlock()
}

func (p *Player) snapshot() Status {
	s := Status{
		State:     p.state,
		Position:  p.clock.Now(),
		Duration:  p.info.Duration,
		Rate:      p.clock.Rate(),
		Volume:    1,
		Buffered:  p.buffer.Len(),
		Presented: p.presented,
		Dropped:   p.buffer.Dropped() + p.lateDrops,
		Err:       p.lastErr,
	}

	if p.sink != nil {
		s.Volume = p.sink.Volume()
		s.Queued = p.sink.Queued()
		s.Underruns = p.sink.Underruns()
		s.Silent = p.sink.Silent()
	}

	if s.Duration > 0 {
		s.Position = util.Clamp(s.Position, 0, s.Duration)
	}

	return s
}
