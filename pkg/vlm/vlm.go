// Package vlm provides a vision-language model client for any
// OpenAI-compatible API (Ollama, vLLM, OpenAI, Together). The verifier
// service uses it to judge step frames and to generate correction overlays.
package vlm

import (
	"context"
	"errors"
)

// Common errors returned by providers.
var (
	ErrNoChoices = errors.New("vlm: no choices returned")
	ErrEmptyJSON = errors.New("vlm: no JSON object in model output")
)

// VisionRequest asks the model to analyze one or more JPEG images.
type VisionRequest struct {
	Prompt string
	System string   // optional system message
	Images [][]byte // raw JPEG bytes, encoded to data URLs on send

	Model       string // override the configured vision model
	MaxTokens   int
	Temperature float64
}

// VisionResponse is the model's text answer plus request metadata.
type VisionResponse struct {
	Content   string
	Model     string
	LatencyMs int64
}

// Provider is the interface the verifier service depends on, so tests can
// substitute a mock for the real API.
type Provider interface {
	Vision(ctx context.Context, req *VisionRequest) (*VisionResponse, error)
	Health(ctx context.Context) error
}
