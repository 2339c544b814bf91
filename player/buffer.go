package player

import (
	"context"
	"sync"

	"github.com/montage-cli/montage/media"
)

// FrameBuffer is a bounded queue of decoded video frames in ascending
// timestamp order. It never holds a frame older than the last one handed
// out; stale frames are dropped, not stored. The decode flow pushes, the
// control flow pops, and a token channel gives pushes real backpressure
// instead of a spin loop.
type FrameBuffer struct {
	mu       sync.Mutex
	frames   []media.VideoFrame
	floor    float64
	hasFloor bool
	dropped  int

	space chan struct{}
}

// NewFrameBuffer builds a buffer holding at most capacity frames.
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 1 {
		capacity = 1
	}

	space := make(chan struct{}, capacity)
	for i := 0; i < capacity; i++ {
		space <- struct{}{}
	}

	return &FrameBuffer{space: space}
}

// PushWait appends a frame, parking while the buffer is full. Frames at
// or below the floor are counted as dropped and never stored.
func (b *FrameBuffer) PushWait(ctx context.Context, frame media.VideoFrame) error {
	select {
	case <-b.space:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.hasFloor && frame.PTS <= b.floor {
		b.dropped++
		b.release()
		return nil
	}

	b.frames = append(b.frames, frame)
	return nil
}

// PopDue removes every frame with a timestamp at or below now and returns
// the newest of them, with the count of older frames dropped to reach it.
func (b *FrameBuffer) PopDue(now float64) (media.VideoFrame, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	due := 0
	for due < len(b.frames) && b.frames[due].PTS <= now {
		due++
	}

	if due == 0 {
		return media.VideoFrame{}, 0, false
	}

	frame := b.frames[due-1]
	b.frames = b.frames[due:]
	b.dropped += due - 1
	b.floor = frame.PTS
	b.hasFloor = true

	for i := 0; i < due; i++ {
		b.release()
	}

	return frame, due - 1, true
}

// Peek returns the next frame without removing it.
func (b *FrameBuffer) Peek() (media.VideoFrame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) == 0 {
		return media.VideoFrame{}, false
	}

	return b.frames[0], true
}

// Flush drops every buffered frame and clears the floor for the next
// timeline position.
func (b *FrameBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for range b.frames {
		b.release()
	}

	b.frames = nil
	b.hasFloor = false
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.frames)
}

// Dropped returns the total frames discarded for being stale.
func (b *FrameBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// release returns one capacity token. Tokens held plus frames stored
// always equal the capacity, so the send cannot block. Callers hold b.mu.
func (b *FrameBuffer) release() {
	b.space <- struct{}{}
}
