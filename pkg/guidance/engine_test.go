package guidance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cyclopsvision/go-mentor/pkg/procedure"
	"github.com/cyclopsvision/go-mentor/pkg/verify"
)

// testClock is a mutex-guarded fake clock plugged into Engine.now.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// testConfig uses a poll interval long enough that the background loop
// never fires; tests drive pollTick directly for determinism. Delayed
// actions use short real timers.
func testConfig() Config {
	return Config{
		PollInterval:    time.Hour,
		MinPresence:     50 * time.Millisecond,
		FrameInterval:   time.Millisecond,
		CompletionDelay: 20 * time.Millisecond,
		MistakeCooldown: 40 * time.Millisecond,
		BufferSize:      5,
		MinFrames:       2,
		FramesPerCheck:  2,
	}
}

func testProcedure(steps int) *procedure.Procedure {
	ss := make([]procedure.Step, steps)
	for i := range ss {
		ss[i] = procedure.Step{ID: i + 1, Title: "Step", Description: "Do the thing"}
	}
	return procedure.New("Test Procedure", ss)
}

func newTestEngine(t *testing.T, gw verify.Gateway) (*Engine, *testClock) {
	t.Helper()
	clk := newTestClock()
	e := New(gw, testConfig())
	e.now = clk.Now
	t.Cleanup(e.Reset)
	return e, clk
}

// engage simulates a present user and enough buffered frames to pass the
// poll gates.
func engage(e *Engine, clk *testClock) {
	e.IngestPresence(true)
	for i := 0; i < 3; i++ {
		clk.Advance(10 * time.Millisecond)
		e.IngestFrame([]byte{byte(i)})
	}
	clk.Advance(100 * time.Millisecond)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func completeResponse(conf float64) *verify.Response {
	return &verify.Response{Status: verify.StatusComplete, Reason: "done", Confidence: conf}
}

func TestEngineIdleBeforeConfigure(t *testing.T) {
	mock := verify.NewMock()
	e, _ := newTestEngine(t, mock)

	if s := e.Status(); s.State != StateIdle {
		t.Fatalf("state = %v, want idle", s.State)
	}

	// Everything is a no-op until a procedure is configured.
	e.IngestFrame([]byte{1})
	e.IngestPresence(true)
	e.ManualAdvance()
	e.ManualTriggerMistake("nope")
	e.pollTick()

	if n := mock.CallCount("VerifyStep"); n != 0 {
		t.Errorf("VerifyStep called %d times before configure", n)
	}
	if s := e.Status(); s.State != StateIdle || s.BufferedFrames != 0 {
		t.Errorf("state changed before configure: %+v", s)
	}
}

func TestConfigureRejectsInvalidProcedure(t *testing.T) {
	e, _ := newTestEngine(t, verify.NewMock())
	if err := e.Configure(procedure.New("Empty", nil)); err == nil {
		t.Fatal("expected error for procedure with no steps")
	}
	if s := e.Status(); s.State != StateIdle {
		t.Errorf("state = %v after rejected configure, want idle", s.State)
	}
}

func TestConfigureStartsMonitoring(t *testing.T) {
	e, _ := newTestEngine(t, verify.NewMock())

	var mu sync.Mutex
	var states []State
	e.OnStateChange(func(s Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	if err := e.Configure(testProcedure(3)); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	s := e.Status()
	if s.State != StateMonitoring || s.StepIndex != 0 || s.TotalSteps != 3 {
		t.Errorf("snapshot = %+v, want monitoring step 0 of 3", s)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 1 || states[0] != StateMonitoring {
		t.Errorf("state changes = %v, want [monitoring]", states)
	}
}

func TestPollGatesHoldCheck(t *testing.T) {
	mock := verify.NewMock()
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	// No presence yet.
	e.pollTick()
	if n := mock.CallCount("VerifyStep"); n != 0 {
		t.Fatalf("VerifyStep called with no presence")
	}

	// Present but not long enough.
	e.IngestPresence(true)
	clk.Advance(10 * time.Millisecond)
	e.pollTick()
	if n := mock.CallCount("VerifyStep"); n != 0 {
		t.Fatalf("VerifyStep called before the presence threshold")
	}

	// Present long enough but too few frames.
	clk.Advance(100 * time.Millisecond)
	e.IngestFrame([]byte{1})
	e.pollTick()
	if n := mock.CallCount("VerifyStep"); n != 0 {
		t.Fatalf("VerifyStep called with too few frames")
	}

	// All gates pass.
	clk.Advance(10 * time.Millisecond)
	e.IngestFrame([]byte{2})
	e.pollTick()
	waitFor(t, "verification call", func() bool { return mock.CallCount("VerifyStep") == 1 })
}

func TestPresenceLossRestartsEngagement(t *testing.T) {
	mock := verify.NewMock()
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	engage(e, clk)
	e.IngestPresence(false)
	e.IngestPresence(true)
	clk.Advance(10 * time.Millisecond)

	// Engagement restarted, so the gate holds again.
	e.pollTick()
	if n := mock.CallCount("VerifyStep"); n != 0 {
		t.Errorf("VerifyStep called right after presence was re-acquired")
	}
}

func TestStepCompleteAdvancesAfterDelay(t *testing.T) {
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		return completeResponse(0.9), nil
	}
	e, clk := newTestEngine(t, mock)

	var mu sync.Mutex
	var completed []int
	e.OnStepCompleted(func(i int) {
		mu.Lock()
		completed = append(completed, i)
		mu.Unlock()
	})

	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()

	waitFor(t, "complete state", func() bool { return e.Status().State == StateComplete })
	waitFor(t, "advance to step 1", func() bool {
		s := e.Status()
		return s.StepIndex == 1 && s.State == StateMonitoring
	})

	// Per-step state starts fresh on the new step.
	s := e.Status()
	if s.BufferedFrames != 0 || s.EngagedSeconds != 0 || s.Confidence != 0 {
		t.Errorf("per-step state not reset: %+v", s)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(completed) != 1 || completed[0] != 0 {
		t.Errorf("completed callbacks = %v, want [0]", completed)
	}
}

func TestFinalStepEndsSession(t *testing.T) {
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		return completeResponse(0.95), nil
	}
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(1)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()

	waitFor(t, "terminal state", func() bool { return e.Status().Terminal })
	if s := e.Status(); s.State != StateComplete {
		t.Errorf("state = %v after final step, want complete", s.State)
	}

	// The session is over; nothing restarts it.
	e.IngestFrame([]byte{1})
	e.pollTick()
	time.Sleep(10 * time.Millisecond)
	if n := mock.CallCount("VerifyStep"); n != 1 {
		t.Errorf("VerifyStep called %d times after the session ended, want 1", n)
	}
	if s := e.Status(); s.BufferedFrames != 0 {
		t.Errorf("frames buffered after the session ended")
	}
}

func TestGatewayFailureReturnsToMonitoring(t *testing.T) {
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		return nil, context.DeadlineExceeded
	}
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()

	waitFor(t, "recovery to monitoring", func() bool {
		return mock.CallCount("VerifyStep") == 1 && e.Status().State == StateMonitoring
	})
	if s := e.Status(); s.StepIndex != 0 {
		t.Errorf("step index = %d after failure, want 0", s.StepIndex)
	}

	// Presence and frames survive the failure, so the next tick retries.
	e.pollTick()
	waitFor(t, "retry call", func() bool { return mock.CallCount("VerifyStep") == 2 })
}

func TestMistakeCooldownResumesMonitoring(t *testing.T) {
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		return &verify.Response{
			Status:     verify.StatusMistake,
			Reason:     "wrong component",
			Confidence: 0.8,
			Suggestion: "use the red one",
		}, nil
	}
	e, clk := newTestEngine(t, mock)

	var mu sync.Mutex
	var mistakes []string
	e.OnMistakeDetected(func(reason, suggestion string) {
		mu.Lock()
		mistakes = append(mistakes, reason+"/"+suggestion)
		mu.Unlock()
	})

	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()

	waitFor(t, "mistake state", func() bool { return e.Status().State == StateMistake })
	if s := e.Status(); s.MistakeReason != "wrong component" || s.StepIndex != 0 {
		t.Errorf("snapshot = %+v, want mistake on step 0", s)
	}

	// Cool-down expires and monitoring resumes on the same step.
	waitFor(t, "cooldown recovery", func() bool { return e.Status().State == StateMonitoring })
	if s := e.Status(); s.MistakeReason != "" || s.StepIndex != 0 {
		t.Errorf("snapshot after cooldown = %+v", s)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(mistakes) != 1 || mistakes[0] != "wrong component/use the red one" {
		t.Errorf("mistake callbacks = %v", mistakes)
	}
}

func TestUnknownStatusTreatedAsInProgress(t *testing.T) {
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		return &verify.Response{Status: "garbled", Confidence: 0.9}, nil
	}
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()

	waitFor(t, "return to monitoring", func() bool {
		return mock.CallCount("VerifyStep") == 1 && e.Status().State == StateMonitoring
	})
	s := e.Status()
	if s.StepIndex != 0 || s.Confidence != 0 {
		t.Errorf("unknown verdict leaked into state: %+v", s)
	}
}

func TestSingleCallInFlight(t *testing.T) {
	release := make(chan struct{})
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		<-release
		return completeResponse(0.9), nil
	}
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()

	waitFor(t, "call in flight", func() bool { return mock.CallCount("VerifyStep") == 1 })

	// Further ticks while a call is outstanding must not start another.
	e.pollTick()
	e.pollTick()
	if n := mock.CallCount("VerifyStep"); n != 1 {
		t.Errorf("VerifyStep called %d times with a call in flight, want 1", n)
	}

	close(release)
	waitFor(t, "completion applied", func() bool { return e.Status().StepIndex == 1 })
}

func TestStaleVerdictDiscarded(t *testing.T) {
	release := make(chan struct{})
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		<-release
		return completeResponse(0.9), nil
	}
	e, clk := newTestEngine(t, mock)

	var mu sync.Mutex
	var completed []int
	e.OnStepCompleted(func(i int) {
		mu.Lock()
		completed = append(completed, i)
		mu.Unlock()
	})

	if err := e.Configure(testProcedure(3)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()
	waitFor(t, "call in flight", func() bool { return mock.CallCount("VerifyStep") == 1 })

	// The operator advances while the call is still running, so its verdict
	// belongs to a step that no longer exists.
	e.ManualAdvance()
	close(release)
	time.Sleep(50 * time.Millisecond)

	s := e.Status()
	if s.StepIndex != 1 || s.State != StateMonitoring {
		t.Errorf("stale verdict was applied: %+v", s)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(completed) != 0 {
		t.Errorf("completion callback fired for a discarded verdict: %v", completed)
	}
}

func TestManualMistakeCancelsInFlightCheck(t *testing.T) {
	release := make(chan struct{})
	mock := verify.NewMock()
	mock.VerifyStepFunc = func(ctx context.Context, req *verify.Request) (*verify.Response, error) {
		<-release
		return completeResponse(0.9), nil
	}
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)
	e.pollTick()
	waitFor(t, "call in flight", func() bool { return mock.CallCount("VerifyStep") == 1 })

	e.ManualTriggerMistake("wrong tool")
	if s := e.Status(); s.State != StateMistake || s.MistakeReason != "wrong tool" {
		t.Fatalf("snapshot = %+v, want manual mistake", s)
	}

	// The in-flight completion arrives late and must not advance anything.
	close(release)
	time.Sleep(50 * time.Millisecond)
	if s := e.Status(); s.StepIndex != 0 {
		t.Errorf("cancelled verdict advanced the step: %+v", s)
	}

	// Cool-down still recovers to monitoring on the same step.
	waitFor(t, "cooldown recovery", func() bool { return e.Status().State == StateMonitoring })
}

func TestResetReturnsToIdle(t *testing.T) {
	mock := verify.NewMock()
	e, clk := newTestEngine(t, mock)
	if err := e.Configure(testProcedure(2)); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	engage(e, clk)

	e.Reset()
	s := e.Status()
	if s.State != StateIdle || s.TotalSteps != 0 || s.BufferedFrames != 0 {
		t.Errorf("snapshot after Reset = %+v", s)
	}

	e.pollTick()
	if n := mock.CallCount("VerifyStep"); n != 0 {
		t.Errorf("VerifyStep called after Reset")
	}
}
