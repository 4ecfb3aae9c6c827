package guidance

import (
	"testing"
	"time"
)

func TestPresenceEngagement(t *testing.T) {
	base := time.Now()
	var p PresenceTracker

	if p.Present() {
		t.Error("fresh tracker should not report present")
	}
	if d := p.EngagedDuration(base); d != 0 {
		t.Errorf("EngagedDuration = %v, want 0", d)
	}

	p.Update(true, base)
	if !p.Present() {
		t.Error("tracker should report present after a present update")
	}
	if d := p.EngagedDuration(base.Add(2 * time.Second)); d != 2*time.Second {
		t.Errorf("EngagedDuration = %v, want 2s", d)
	}

	// Repeated present updates do not restart the clock.
	p.Update(true, base.Add(time.Second))
	if d := p.EngagedDuration(base.Add(3 * time.Second)); d != 3*time.Second {
		t.Errorf("EngagedDuration after repeat update = %v, want 3s", d)
	}
}

func TestPresenceClearsOnAbsence(t *testing.T) {
	base := time.Now()
	var p PresenceTracker

	p.Update(true, base)
	p.Update(false, base.Add(5*time.Second))

	if p.Present() {
		t.Error("tracker should not report present after an absent update")
	}
	if d := p.EngagedDuration(base.Add(10 * time.Second)); d != 0 {
		t.Errorf("EngagedDuration after absence = %v, want 0", d)
	}

	// A single absent sample means engagement starts over.
	p.Update(true, base.Add(6*time.Second))
	if d := p.EngagedDuration(base.Add(7 * time.Second)); d != time.Second {
		t.Errorf("EngagedDuration after re-acquire = %v, want 1s", d)
	}
}

func TestPresenceReset(t *testing.T) {
	var p PresenceTracker
	p.Update(true, time.Now())
	p.Reset()

	if p.Present() {
		t.Error("tracker should not report present after Reset")
	}
	if d := p.EngagedDuration(time.Now()); d != 0 {
		t.Errorf("EngagedDuration after Reset = %v, want 0", d)
	}
}
