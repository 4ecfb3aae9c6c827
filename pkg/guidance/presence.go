package guidance

import (
	"time"
)

// PresenceTracker converts a per-frame presence signal into a continuous
// engaged duration. Acquisition is debounced by the caller comparing
// EngagedDuration against a threshold; loss of presence resets immediately
// with no grace period. Not safe for concurrent use; the engine serializes
// access.
type PresenceTracker struct {
	present bool
	since   time.Time
}

// Update records the presence signal at the given time. The first present
// observation starts the engagement clock; any absent observation clears it
// unconditionally.
func (p *PresenceTracker) Update(present bool, now time.Time) {
	if !present {
		p.present = false
		p.since = time.Time{}
		return
	}
	if !p.present {
		p.present = true
		p.since = now
	}
}

// Present reports whether the user was present at the last update.
func (p *PresenceTracker) Present() bool {
	return p.present
}

// EngagedDuration returns how long the user has been continuously present,
// or zero if absent. Used purely as a gate, never as ground truth about
// step correctness.
func (p *PresenceTracker) EngagedDuration(now time.Time) time.Duration {
	if !p.present || p.since.IsZero() {
		return 0
	}
	d := now.Sub(p.since)
	if d < 0 {
		return 0
	}
	return d
}

// Reset clears all presence state.
func (p *PresenceTracker) Reset() {
	p.present = false
	p.since = time.Time{}
}
