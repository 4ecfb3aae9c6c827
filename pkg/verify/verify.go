// Package verify defines the request/response boundary to the remote step
// verifier. The gateway is a pure request-to-response operation: no retries,
// no state. Interpreting a verdict (and deciding when to ask for one) is the
// guidance engine's job.
package verify

import (
	"context"

	"github.com/cyclopsvision/go-mentor/pkg/overlay"
)

// Verdict statuses returned by the verifier.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusMistake    = "mistake"
)

// Request asks the verifier whether the current step is done, still in
// progress, or went wrong. Frames carry base64-encoded JPEG images giving
// the model temporal context.
type Request struct {
	ProcedureID     string   `json:"lesson_id"`
	StepID          int      `json:"step_id"`
	StepTitle       string   `json:"step_title"`
	StepDescription string   `json:"step_description"`
	Frames          []string `json:"frames_base64"`
}

// Response is the verifier's verdict on one request.
type Response struct {
	Status     string  `json:"status"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// Known reports whether the status is one of the three defined verdicts.
// Callers treat anything unknown as in_progress rather than failing.
func (r *Response) Known() bool {
	switch r.Status {
	case StatusInProgress, StatusComplete, StatusMistake:
		return true
	}
	return false
}

// FeedbackRequest asks the verifier to turn a detected mistake into a
// corrective overlay.
type FeedbackRequest struct {
	ProcedureID string  `json:"lesson_id"`
	StepID      int     `json:"step_id"`
	MistakeType string  `json:"mistake_type"`
	Confidence  float64 `json:"confidence"`
	Frame       string  `json:"frame_base64,omitempty"`
}

// FeedbackResponse carries the overlay and spoken text for a correction.
type FeedbackResponse struct {
	Success bool                 `json:"success"`
	Overlay *overlay.Instruction `json:"overlay,omitempty"`
	Message string               `json:"message,omitempty"`
}

// Gateway is the outbound boundary to the remote verifier.
type Gateway interface {
	// VerifyStep submits buffered frames and the active step for judgment.
	VerifyStep(ctx context.Context, req *Request) (*Response, error)

	// RequestFeedback asks for a corrective overlay after a mistake.
	RequestFeedback(ctx context.Context, req *FeedbackRequest) (*FeedbackResponse, error)
}
