package guidance

import (
	"time"
)

// Frame is a timestamped sensor sample. The buffer owns frames exclusively
// until they are evicted.
type Frame struct {
	Data       []byte
	CapturedAt time.Time
}

// FrameBuffer is a rolling, time-sampled window of recent frames. Frames
// arriving faster than the capture interval are discarded, not queued, so
// the buffer always spans a meaningful slice of wall time regardless of the
// sensor rate. Not safe for concurrent use; the engine serializes access.
type FrameBuffer struct {
	frames   []Frame
	capacity int
	interval time.Duration
	lastAt   time.Time
}

// NewFrameBuffer creates a buffer holding up to capacity frames spaced at
// least interval apart.
func NewFrameBuffer(capacity int, interval time.Duration) *FrameBuffer {
	return &FrameBuffer{
		frames:   make([]Frame, 0, capacity),
		capacity: capacity,
		interval: interval,
	}
}

// Offer accepts the frame only if enough time has passed since the last
// accepted frame. On accept, the oldest frame is evicted once the buffer is
// full. Returns whether the frame was accepted.
func (b *FrameBuffer) Offer(f Frame, now time.Time) bool {
	if !b.lastAt.IsZero() && now.Sub(b.lastAt) < b.interval {
		return false
	}
	b.lastAt = now

	if len(b.frames) >= b.capacity {
		copy(b.frames, b.frames[1:])
		b.frames = b.frames[:len(b.frames)-1]
	}
	b.frames = append(b.frames, f)
	return true
}

// Snapshot returns copies of the most recent k frames, oldest first, or
// fewer if the buffer holds fewer. Buffered frames are not removed.
func (b *FrameBuffer) Snapshot(k int) []Frame {
	if k > len(b.frames) {
		k = len(b.frames)
	}
	out := make([]Frame, k)
	copy(out, b.frames[len(b.frames)-k:])
	return out
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int {
	return len(b.frames)
}

// Clear drops all buffered frames and the acceptance timer.
func (b *FrameBuffer) Clear() {
	b.frames = b.frames[:0]
	b.lastAt = time.Time{}
}
