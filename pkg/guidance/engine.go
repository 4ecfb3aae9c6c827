package guidance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cyclopsvision/go-mentor/pkg/procedure"
	"github.com/cyclopsvision/go-mentor/pkg/verify"
)

// Engine drives one guided session: it owns the frame buffer, the presence
// tracker, the poll scheduler, and the verification state machine. All state
// mutations are serialized behind one mutex; the poll loop, the frame
// ingestion path, and verdict continuations never interleave.
//
// Every reset of per-step state bumps a generation counter. In-flight
// verifier calls and delayed actions capture the generation at issue time
// and become no-ops if it has moved on, so late verdicts and stale timers
// can never be applied to the wrong step.
type Engine struct {
	cfg    Config
	gw     verify.Gateway
	logger *slog.Logger

	mu             sync.Mutex
	proc           *procedure.Procedure
	stepIndex      int
	state          State
	buffer         *FrameBuffer
	presence       *PresenceTracker
	callInProgress bool
	terminal       bool
	gen            uint64
	mistakeSeq     uint64
	confidence     float64
	mistakeReason  string
	stop           chan struct{}

	// now is replaceable for deterministic tests.
	now func() time.Time

	onStepCompleted   func(stepIndex int)
	onMistakeDetected func(reason, suggestion string)
	onStateChange     func(Snapshot)
}

// New creates an engine that asks gw for step verdicts. The engine is idle
// until Configure is called.
func New(gw verify.Gateway, cfg Config) *Engine {
	cfg.normalize()
	return &Engine{
		cfg:      cfg,
		gw:       gw,
		logger:   cfg.Logger.With("component", "guidance.engine"),
		state:    StateIdle,
		buffer:   NewFrameBuffer(cfg.BufferSize, cfg.FrameInterval),
		presence: &PresenceTracker{},
		now:      time.Now,
	}
}

// OnStepCompleted registers the callback fired when a step is verified
// complete. Set callbacks before Configure.
func (e *Engine) OnStepCompleted(fn func(stepIndex int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStepCompleted = fn
}

// OnMistakeDetected registers the callback fired when the verifier flags a
// mistake. The suggestion may be empty.
func (e *Engine) OnMistakeDetected(fn func(reason, suggestion string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMistakeDetected = fn
}

// OnStateChange registers the callback fired after every state transition
// with a fresh snapshot.
func (e *Engine) OnStateChange(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onStateChange = fn
}

// Configure loads a procedure and starts monitoring its first step. Any
// previous session is discarded, including in-flight verification calls.
func (e *Engine) Configure(proc *procedure.Procedure) error {
	if err := proc.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.stopLoopLocked()
	e.proc = proc
	e.stepIndex = 0
	e.terminal = false
	e.resetStepLocked()
	fires := e.setStateLocked(StateMonitoring)
	stopCh := make(chan struct{})
	e.stop = stopCh
	e.mu.Unlock()

	e.logger.Info("procedure configured",
		"procedure_id", proc.ID,
		"title", proc.Title,
		"steps", proc.NumSteps(),
	)

	go e.pollLoop(stopCh)
	runAll(fires)
	return nil
}

// Reset discards the session and returns the engine to idle. Any in-flight
// call result will be ignored on arrival.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopLoopLocked()
	e.proc = nil
	e.stepIndex = 0
	e.terminal = false
	e.resetStepLocked()
	fires := e.setStateLocked(StateIdle)
	e.mu.Unlock()

	runAll(fires)
}

// IngestFrame offers a raw frame to the rolling buffer. Frames arriving
// faster than the capture interval are dropped. A no-op before Configure.
func (e *Engine) IngestFrame(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proc == nil || e.terminal {
		return
	}
	now := e.now()
	e.buffer.Offer(Frame{Data: data, CapturedAt: now}, now)
}

// IngestPresence feeds the per-frame presence signal. A no-op before
// Configure.
func (e *Engine) IngestPresence(present bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.proc == nil || e.terminal {
		return
	}
	e.presence.Update(present, e.now())
}

// ManualAdvance skips to the next step immediately, cancelling any pending
// auto-advance or in-flight verification for the current step.
func (e *Engine) ManualAdvance() {
	e.mu.Lock()
	if e.proc == nil || e.terminal {
		e.mu.Unlock()
		return
	}
	fires := e.advanceLocked()
	e.mu.Unlock()

	runAll(fires)
}

// ManualTriggerMistake forces the mistake flow with the given reason, as if
// the verifier had flagged it. Useful for demos and for on-device detectors
// that bypass the remote verifier.
func (e *Engine) ManualTriggerMistake(reason string) {
	e.mu.Lock()
	if e.proc == nil || e.terminal || e.state == StateIdle {
		e.mu.Unlock()
		return
	}
	// Leaving Checking by external cause invalidates the in-flight call.
	e.gen++
	e.callInProgress = false
	fires := e.enterMistakeLocked(reason, "")
	e.mu.Unlock()

	runAll(fires)
}

// Status returns a read-only snapshot for UI binding.
func (e *Engine) Status() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// pollLoop fires verification attempts at a fixed period until stopped.
func (e *Engine) pollLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			e.pollTick()
		}
	}
}

// pollTick attempts one verification call. Every guard failure is normal
// steady-state behavior, logged at debug and nothing more.
func (e *Engine) pollTick() {
	e.mu.Lock()
	now := e.now()

	if e.proc == nil || e.terminal {
		e.mu.Unlock()
		return
	}
	if e.state != StateMonitoring {
		e.logger.Debug("poll skipped", "reason", "state", "state", e.state.String())
		e.mu.Unlock()
		return
	}
	if e.callInProgress {
		e.logger.Debug("poll skipped", "reason", "call in progress")
		e.mu.Unlock()
		return
	}
	if engaged := e.presence.EngagedDuration(now); engaged < e.cfg.MinPresence {
		e.logger.Debug("poll skipped", "reason", "presence", "engaged_ms", engaged.Milliseconds())
		e.mu.Unlock()
		return
	}
	if e.buffer.Len() < e.cfg.MinFrames {
		e.logger.Debug("poll skipped", "reason", "frames", "buffered", e.buffer.Len())
		e.mu.Unlock()
		return
	}

	frames := e.buffer.Snapshot(e.cfg.FramesPerCheck)
	step := e.proc.Steps[e.stepIndex]
	procID := e.proc.ID
	stepIdx := e.stepIndex
	token := e.gen

	e.callInProgress = true
	fires := e.setStateLocked(StateChecking)
	e.mu.Unlock()

	runAll(fires)
	go e.runVerification(procID, step, stepIdx, token, frames)
}

// runVerification encodes frames, calls the gateway, and feeds the verdict
// back into the state machine. Frame encoding happens here, off the lock,
// so ingestion is never starved by compression work.
func (e *Engine) runVerification(procID string, step procedure.Step, stepIdx int, token uint64, frames []Frame) {
	encoded := make([]string, 0, len(frames))
	for _, f := range frames {
		s, err := e.cfg.EncodeFrame(f.Data)
		if err != nil {
			e.logger.Warn("frame encode failed", "error", err)
			continue
		}
		encoded = append(encoded, s)
	}

	req := &verify.Request{
		ProcedureID:     procID,
		StepID:          step.ID,
		StepTitle:       step.Title,
		StepDescription: step.Description,
		Frames:          encoded,
	}

	resp, err := e.gw.VerifyStep(context.Background(), req)
	e.applyVerdict(resp, err, stepIdx, token)
}

// applyVerdict interprets a gateway result. A verdict issued for a
// superseded generation or a different step is discarded untouched.
func (e *Engine) applyVerdict(resp *verify.Response, err error, stepIdx int, token uint64) {
	var fires []func()

	e.mu.Lock()
	if e.gen != token || e.stepIndex != stepIdx {
		e.mu.Unlock()
		e.logger.Debug("discarding stale verdict", "issued_step", stepIdx)
		return
	}
	e.callInProgress = false

	switch {
	case err != nil:
		// Gateway failure recovers locally: back to monitoring, next tick
		// retries.
		e.logger.Warn("verification call failed", "step", stepIdx, "error", err)
		fires = e.setStateLocked(StateMonitoring)

	case resp.Status == verify.StatusComplete:
		e.confidence = resp.Confidence
		completed := e.stepIndex
		fires = e.setStateLocked(StateComplete)
		if e.onStepCompleted != nil {
			fn := e.onStepCompleted
			fires = append(fires, func() { fn(completed) })
		}
		e.logger.Info("step complete", "step", completed, "confidence", resp.Confidence)
		e.scheduleLocked(e.cfg.CompletionDelay, func() { e.delayedAdvance(token) })

	case resp.Status == verify.StatusMistake:
		e.confidence = resp.Confidence
		fires = e.enterMistakeLocked(resp.Reason, resp.Suggestion)
		e.logger.Info("mistake detected", "step", stepIdx, "reason", resp.Reason)

	default:
		// in_progress, and the safe harbor for anything malformed. The
		// confidence blend is informational only.
		if resp.Known() {
			e.confidence = 0.7*e.confidence + 0.3*resp.Confidence
		}
		fires = e.setStateLocked(StateMonitoring)
	}
	e.mu.Unlock()

	runAll(fires)
}

// enterMistakeLocked moves to the mistake state, notifies, and schedules
// the cool-down that returns to monitoring.
func (e *Engine) enterMistakeLocked(reason, suggestion string) []func() {
	e.mistakeReason = reason
	e.mistakeSeq++
	seq := e.mistakeSeq
	token := e.gen

	fires := e.setStateLocked(StateMistake)
	if e.onMistakeDetected != nil {
		fn := e.onMistakeDetected
		fires = append(fires, func() { fn(reason, suggestion) })
	}
	e.scheduleLocked(e.cfg.MistakeCooldown, func() { e.clearMistake(token, seq) })
	return fires
}

// delayedAdvance runs after the completion delay. It re-checks that the
// engine is still showing the completion it was scheduled for.
func (e *Engine) delayedAdvance(token uint64) {
	e.mu.Lock()
	if e.gen != token || e.state != StateComplete {
		e.mu.Unlock()
		return
	}
	fires := e.advanceLocked()
	e.mu.Unlock()

	runAll(fires)
}

// clearMistake runs after the cool-down. A newer mistake or any per-step
// reset supersedes it.
func (e *Engine) clearMistake(token uint64, seq uint64) {
	e.mu.Lock()
	if e.gen != token || e.state != StateMistake || e.mistakeSeq != seq {
		e.mu.Unlock()
		return
	}
	e.mistakeReason = ""
	fires := e.setStateLocked(StateMonitoring)
	e.mu.Unlock()

	runAll(fires)
}

// advanceLocked moves to the next step with a full per-step reset, or marks
// the procedure terminal after the last step. Terminal halts the poll loop
// permanently.
func (e *Engine) advanceLocked() []func() {
	if e.stepIndex >= e.proc.NumSteps()-1 {
		e.terminal = true
		e.stopLoopLocked()
		e.resetStepLocked()
		e.logger.Info("procedure finished", "procedure_id", e.proc.ID)
		return e.setStateLocked(StateComplete)
	}

	e.stepIndex++
	e.resetStepLocked()
	e.logger.Info("advanced to step", "step", e.stepIndex, "title", e.proc.Steps[e.stepIndex].Title)
	return e.setStateLocked(StateMonitoring)
}

// resetStepLocked clears all per-step state and invalidates in-flight calls
// and pending delayed actions by bumping the generation.
func (e *Engine) resetStepLocked() {
	e.gen++
	e.callInProgress = false
	e.buffer.Clear()
	e.presence.Reset()
	e.confidence = 0
	e.mistakeReason = ""
}

// stopLoopLocked halts the poll loop if running.
func (e *Engine) stopLoopLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

// scheduleLocked arms a delayed action. The closure must re-check engine
// state under lock before mutating anything; the generation token captured
// by the caller is the cancellation mechanism.
func (e *Engine) scheduleLocked(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// setStateLocked transitions the state and returns the notification to run
// after the lock is released. Callbacks never run under the engine lock.
func (e *Engine) setStateLocked(s State) []func() {
	if e.state == s {
		return nil
	}
	e.state = s
	if e.onStateChange == nil {
		return nil
	}
	fn := e.onStateChange
	snap := e.snapshotLocked()
	return []func(){func() { fn(snap) }}
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          e.state,
		StepIndex:      e.stepIndex,
		Terminal:       e.terminal,
		EngagedSeconds: e.presence.EngagedDuration(e.now()).Seconds(),
		BufferedFrames: e.buffer.Len(),
		Confidence:     e.confidence,
		MistakeReason:  e.mistakeReason,
	}
	if e.proc != nil {
		snap.TotalSteps = e.proc.NumSteps()
		if e.stepIndex < e.proc.NumSteps() {
			snap.StepTitle = e.proc.Steps[e.stepIndex].Title
		}
	}
	return snap
}

func runAll(fires []func()) {
	for _, fn := range fires {
		fn()
	}
}
