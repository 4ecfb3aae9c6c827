package verify

import (
	"context"
	"sync"
	"time"
)

// Mock implements Gateway for testing.
// All methods can be customized via function fields.
type Mock struct {
	// VerifyStepFunc is called when VerifyStep is invoked.
	// If nil, returns an in_progress verdict.
	VerifyStepFunc func(ctx context.Context, req *Request) (*Response, error)

	// RequestFeedbackFunc is called when RequestFeedback is invoked.
	// If nil, returns a successful response with no overlay.
	RequestFeedbackFunc func(ctx context.Context, req *FeedbackRequest) (*FeedbackResponse, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	StepID int
	Time   time.Time
}

// NewMock creates a mock gateway with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		VerifyStepFunc: func(ctx context.Context, req *Request) (*Response, error) {
			return &Response{
				Status:     StatusInProgress,
				Reason:     "Analyzing...",
				Confidence: 0.5,
			}, nil
		},
		RequestFeedbackFunc: func(ctx context.Context, req *FeedbackRequest) (*FeedbackResponse, error) {
			return &FeedbackResponse{Success: true}, nil
		},
	}
}

// VerifyStep implements Gateway.
func (m *Mock) VerifyStep(ctx context.Context, req *Request) (*Response, error) {
	m.record("VerifyStep", req.StepID)
	return m.VerifyStepFunc(ctx, req)
}

// RequestFeedback implements Gateway.
func (m *Mock) RequestFeedback(ctx context.Context, req *FeedbackRequest) (*FeedbackResponse, error) {
	m.record("RequestFeedback", req.StepID)
	return m.RequestFeedbackFunc(ctx, req)
}

func (m *Mock) record(method string, stepID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, StepID: stepID, Time: time.Now()})
}

// Calls returns a copy of recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of calls to the named method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
